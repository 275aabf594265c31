package finagent_test

import (
	"context"
	"fmt"
	"log"

	"github.com/finagentlabs/finagent"
	"github.com/finagentlabs/finagent/pkg/adapters/memory"
)

// ExampleNew demonstrates running a query end to end with an in-memory
// trace store. Production setups plug in reasoning.NewClient and
// tools.NewRegistry instead of the stubs used here.
func ExampleNew() {
	agent := finagent.New(
		&stubReasoner{answer: "The total GST liability is INR 25,000."},
		stubRegistry{},
		finagent.WithTraceStore(memory.NewStore()),
	)

	result, err := agent.Run(context.Background(), "What is my GST liability?", "conv-1")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result.Answer)
	fmt.Println("citations:", len(result.Citations))
	// Output:
	// The total GST liability is INR 25,000.
	// citations: 1
}

// ExampleAgent_RunStream shows how a consumer observes node progress while
// a run executes.
func ExampleAgent_RunStream() {
	agent := finagent.New(&stubReasoner{answer: "Done."}, stubRegistry{})

	events, errs := agent.RunStream(context.Background(), "What is the total?", "")
	for event := range events {
		fmt.Println(event.Node)
	}
	if err := <-errs; err != nil {
		log.Fatal(err)
	}
	// Output:
	// classify
	// retrieve
	// synthesize
}
