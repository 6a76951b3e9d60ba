package deps_test

import (
	"fmt"

	"github.com/matzehuels/dtsm/pkg/deps"
)

func ExampleOptions_WithDefaults() {
	opts := deps.Options{
		MaxDepth: 10,
	}

	opts = opts.WithDefaults()

	fmt.Println("Workers:", opts.Workers)
	fmt.Println("MaxDepth:", opts.MaxDepth)
	fmt.Println("MaxNodes:", opts.MaxNodes)
	// Output:
	// Workers: 8
	// MaxDepth: 10
	// MaxNodes: 5000
}

func ExampleClosure_Reachable() {
	c := &deps.Closure{
		Roots: []string{"atom/atom.d.ts"},
		Nodes: map[string]*deps.Node{
			"atom/atom.d.ts":     {ID: "atom/atom.d.ts", Dependencies: []string{"q/Q.d.ts", "jquery/jquery.d.ts"}},
			"q/Q.d.ts":           {ID: "q/Q.d.ts"},
			"jquery/jquery.d.ts": {ID: "jquery/jquery.d.ts"},
			"other/other.d.ts":   {ID: "other/other.d.ts"},
		},
	}

	for _, id := range c.Reachable("atom/atom.d.ts") {
		fmt.Println(id)
	}
	// Output:
	// atom/atom.d.ts
	// jquery/jquery.d.ts
	// q/Q.d.ts
}
