// Package harness runs conformance scenarios for query trees.
//
// A scenario loads definition documents, holds a fixed set of records and
// lists cases. Each case compiles one tree with one parameter set and states
// which records must match, or which error compilation must fail with.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: customer_search
//	description: "Optional filters on customers"
//	definitions:
//	  - ../trees/customers.cue
//	key: id
//	sql: true
//	records:
//	  - {id: ada, Name: Ada, Tier: 10, Address: {City: London}}
//	cases:
//	  - name: tier only
//	    tree: CustomerSearch
//	    params: {tier: "10,5"}
//	    expect:
//	      match: [ada]
//	  - name: bad range side
//	    tree: CustomerSearch
//	    params: {"age#0": old}
//	    expect:
//	      error: binding
//
// Definition paths are relative to the scenario file. Expected matches are
// key values in record order.
//
// # SQL Equivalence
//
// With sql: true every successful case is also translated to SQL and run
// against an in-memory SQLite table holding the same records, with owner
// properties flattened to snake-case columns. The rows it returns must be
// the records the in-memory predicate keeps.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/customers.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, c := range result.Cases {
//	        for _, e := range c.Errors {
//	            log.Println(c.Name, e)
//	        }
//	    }
//	}
package harness
