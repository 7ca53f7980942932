// Command transac-demo is the §8 "transac" scenario, adapted from the
// order-processing example: a root transactional container exercised
// through three independent sequences over begin/lazyApply/prepare/
// commit/abort/resume.
package main

import (
	"fmt"
	"log"

	"github.com/cafgo/components/loader"
	"github.com/cafgo/components/logging"
)

func await(fn func(cb func(error))) error {
	done := make(chan error, 1)
	fn(func(err error) { done <- err })
	return <-done
}

func main() {
	ldr := loader.New()
	logger := logging.New(nil)

	// (a) begin; lazyApply setLanguage; lazyApply setMessage; commit ->
	// values change only after commit.
	opA, err := newOrderProcessor("orders-a", ldr, logger)
	if err != nil {
		log.Fatalf("newOrderProcessor a: %v", err)
	}
	if err := await(func(cb func(error)) { opA.Begin(nil, cb) }); err != nil {
		log.Fatalf("a: begin: %v", err)
	}
	opA.LazyApply("setLanguage", "french")
	opA.LazyApply("setMessage", "bonjour")
	lang, msg := opA.State()
	fmt.Printf("(a) before commit: language=%q message=%q\n", lang, msg)
	if err := await(opA.Commit); err != nil {
		log.Fatalf("a: commit: %v", err)
	}
	lang, msg = opA.State()
	fmt.Printf("(a) after commit: language=%q message=%q\n", lang, msg)

	// (b) begin; lazyApply ...; prepare; abort -> values revert;
	// resume(prepared) -> values replay.
	opB, err := newOrderProcessor("orders-b", ldr, logger)
	if err != nil {
		log.Fatalf("newOrderProcessor b: %v", err)
	}
	if err := await(func(cb func(error)) { opB.Begin(nil, cb) }); err != nil {
		log.Fatalf("b: begin: %v", err)
	}
	opB.LazyApply("setLanguage", "french")
	opB.LazyApply("setMessage", "bonjour")

	var prepared any
	var prepareErr error
	opB.Prepare(func(cp any, err error) { prepared, prepareErr = cp, err })
	if prepareErr != nil {
		log.Fatalf("b: prepare: %v", prepareErr)
	}

	if err := await(opB.Abort); err != nil {
		log.Fatalf("b: abort: %v", err)
	}
	lang, msg = opB.State()
	fmt.Printf("(b) after abort: language=%q message=%q\n", lang, msg)

	if err := await(func(cb func(error)) { opB.Resume(prepared, cb) }); err != nil {
		log.Fatalf("b: resume: %v", err)
	}
	lang, msg = opB.State()
	fmt.Printf("(b) after resume(prepared): language=%q message=%q\n", lang, msg)

	// (c) begin; lazyApply ...; lazyApply die; prepare; commit -> commit
	// returns an error.
	opC, err := newOrderProcessor("orders-c", ldr, logger)
	if err != nil {
		log.Fatalf("newOrderProcessor c: %v", err)
	}
	if err := await(func(cb func(error)) { opC.Begin(nil, cb) }); err != nil {
		log.Fatalf("c: begin: %v", err)
	}
	opC.LazyApply("setLanguage", "french")
	opC.LazyApply("die")

	opC.Prepare(func(cp any, err error) {
		if err != nil {
			log.Fatalf("c: prepare: %v", err)
		}
	})

	commitErr := await(opC.Commit)
	fmt.Printf("(c) commit error: %v\n", commitErr)
}
