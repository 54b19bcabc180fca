// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectivity

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("aleutian.reactome.connectivity")

func startIntersectionSpan(ctx context.Context, ck ComponentKind, sk StructureKind) (context.Context, trace.Span) {
	return tracer.Start(ctx, "connectivity.Intersection",
		trace.WithAttributes(
			attribute.String("component_kind", ck.String()),
			attribute.String("structure_kind", sk.String()),
		),
	)
}

func endSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	defer span.End()
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
