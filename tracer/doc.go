// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

// Package tracer implements a distributed-tracing client: spans, trace
// segments, context propagation across Datadog, B3, and W3C tracecontext
// headers, a two-stage sampling pipeline, and an agent-bound collector.
//
// A Tracer is created once per process (or per component, if a process
// hosts several independently configured tracers — there is no global
// singleton) with Start, and every other operation hangs off it:
//
//	tr, err := tracer.Start(tracer.WithService("checkout"), tracer.WithEnv("prod"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tr.Stop()
//
//	span := tr.CreateSpan("http.request", tracer.Resource("/cart"))
//	defer span.Finish()
//
//	child := tr.CreateChild(span, "db.query")
//	defer child.Finish()
//
// Incoming context is extracted from a carrier (anything implementing
// TextMapReader, such as HTTPHeadersCarrier) and used to seed a local
// span:
//
//	sc, err := tr.ExtractSpan(tracer.HTTPHeadersCarrier(r.Header))
//	if err == nil {
//		root, _ := tr.StartSpanFromContext(sc, "http.request")
//		defer root.Finish()
//	}
//
// Outgoing requests carry the trace forward the same way:
//
//	_ = tr.Inject(span.Context(), tracer.HTTPHeadersCarrier(req.Header))
package tracer
