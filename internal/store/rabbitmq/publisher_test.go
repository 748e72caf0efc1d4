package rabbitmq

import (
	"reflect"
	"testing"
)

// The broker raises PRECONDITION_FAILED when the same queue is redeclared
// with a different argument table, so the one topology definition has to be
// internally consistent and deterministic across processes.
func TestTopologyDeadLetterChain(t *testing.T) {
	specs := topology("chat_exchanges")

	byName := map[string]queueSpec{}
	for _, q := range specs {
		byName[q.name] = q
	}

	main, ok := byName["chat_exchanges"]
	if !ok {
		t.Fatalf("main queue missing from topology: %+v", specs)
	}
	if got := main.args["x-dead-letter-routing-key"]; got != "chat_exchanges.dlq" {
		t.Fatalf("main queue dead-letters to %v, want chat_exchanges.dlq", got)
	}

	retry, ok := byName["chat_exchanges.retry"]
	if !ok {
		t.Fatalf("retry queue missing from topology: %+v", specs)
	}
	if got := retry.args["x-dead-letter-routing-key"]; got != "chat_exchanges" {
		t.Fatalf("retry queue dead-letters to %v, want chat_exchanges", got)
	}

	dlq, ok := byName["chat_exchanges.dlq"]
	if !ok {
		t.Fatalf("dlq missing from topology: %+v", specs)
	}
	if dlq.args != nil {
		t.Fatalf("dlq should declare without arguments, got %v", dlq.args)
	}
}

func TestTopologyDeterministic(t *testing.T) {
	a := topology("chat_exchanges")
	b := topology("chat_exchanges")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("topology is not stable across calls:\n%+v\n%+v", a, b)
	}
}
