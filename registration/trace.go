package registration

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/tea-network/teanet/registration")
