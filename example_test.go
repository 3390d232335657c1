package codeflow_test

import (
	"context"
	"fmt"
	"log"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// ExampleEngine_Execute traces a small loop and prints one line per step.
func ExampleEngine_Execute() {
	eng := codeflow.New()

	res, err := eng.Execute(context.Background(), domain.Source{
		Code: "let i = 0;\ndo {\n  i++;\n} while (i < 2);",
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range res.Steps {
		fmt.Printf("%d %s: %s\n", s.Line, s.Kind, s.Description)
	}
	// Output:
	// 0 start: Program started
	// 1 var-decl: Declare let i = 0
	// 3 assignment: Update i: 0 → 1
	// 2 loop-condition: do-while condition → true (iteration 1)
	// 3 assignment: Update i: 1 → 2
	// 2 loop-condition: do-while condition → false (iteration 2)
	// 0 end: Program finished
}

// ExampleEngine_Execute_inputs feeds values to input() calls.
func ExampleEngine_Execute_inputs() {
	eng := codeflow.New()

	res, err := eng.Execute(context.Background(), domain.Source{
		Code:   "let name = input();\nprint(\"hi \" + name);",
		Inputs: []string{"Ada"},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Output, res.Error == nil)
	// Output: [hi Ada] true
}
