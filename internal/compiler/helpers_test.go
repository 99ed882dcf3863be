package compiler

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/roach88/qtree/internal/entity"
	"github.com/roach88/qtree/internal/querytree"
)

type Address struct {
	City    string
	Country string
}

type Customer struct {
	Name    string
	Status  int
	Age     int
	Score   float64
	Active  bool
	Joined  time.Time
	Nick    *string
	Address *Address
	Tags    []string
}

var customers = []Customer{
	{Name: "Ada", Status: 1, Age: 36, Score: 9.5, Active: true, Joined: day(2020, 3, 1), Address: &Address{City: "London", Country: "UK"}},
	{Name: "Bob", Status: 2, Age: 17, Score: 4, Joined: day(2023, 7, 15), Address: &Address{City: "Paris", Country: "FR"}},
	{Name: "Cy", Status: 3, Age: 52, Score: 7.25, Active: true, Joined: day(2019, 1, 9)},
	{Name: "Dee", Status: 4, Age: 10, Score: 1, Joined: day(2024, 2, 29), Address: &Address{City: "London", Country: "CA"}},
	{Name: "", Status: 2, Age: 1000000, Score: 3, Active: true, Joined: day(2021, 12, 31), Address: &Address{City: "Lyon", Country: "FR"}},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quiet() *Compiler {
	return New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
}

func resolver() entity.Resolver[Customer] {
	return entity.MustReflect[Customer]()
}

func eq(param, property, dataType string) *querytree.SingleCondition {
	return cond(param, "", property, dataType, querytree.Eq)
}

func cond(param, owner, property, dataType string, op querytree.Operator) *querytree.SingleCondition {
	return &querytree.SingleCondition{
		Property: querytree.Property{Owner: owner, Name: property},
		DataType: dataType,
		Op:       op,
		Param:    param,
	}
}

func multi(param, property, dataType string, op querytree.Operator) *querytree.MultiCondition {
	return &querytree.MultiCondition{
		Property: querytree.Property{Name: property},
		DataType: dataType,
		Op:       op,
		Param:    param,
	}
}

func rng(param, property, dataType string) *querytree.RangeCondition {
	return &querytree.RangeCondition{
		Property: querytree.Property{Name: property},
		DataType: dataType,
		Param:    param,
	}
}

func and(nodes ...querytree.Node) *querytree.Combinator {
	return &querytree.Combinator{Op: querytree.And, Nodes: nodes}
}

func or(nodes ...querytree.Node) *querytree.Combinator {
	return &querytree.Combinator{Op: querytree.Or, Nodes: nodes}
}

func tree(root querytree.Node) *querytree.Definition {
	return &querytree.Definition{Name: "T", Root: root}
}

func names(items []Customer) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}
