// Package sft is a deterministic semantic field engine. Text, code and
// world context encode into a five-component field state (tension,
// curvature, phase, energy, coherence) that evolves step by step
// toward the attractor built up by an exponential memory, watched by a
// second-order awareness field, held inside hard invariants by a
// guardian and judged by a governor.
//
// The engine computes nothing from time, randomness, network or disk:
// the same request sequence on a freshly constructed engine always
// yields the same result signature. Trace session ids are the single
// random value and never feed back into state.
//
// Minimal use:
//
//	eng := sft.NewDefault()
//	res := eng.Process(sft.Request{Text: "the field settles"})
//	fmt.Println(res.Coherence, res.AwarenessLevel, res.Signature)
//
// An Engine is one logical session and is not safe for concurrent
// use. RunBatch fans independent requests out over fresh engines.
package sft
