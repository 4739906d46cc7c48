package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/docset-relay/internal/aryn"
)

// CannedQueryID is the query id returned in test mode.
const CannedQueryID = "45imecgk35du9dnrf4wkqfp"

// CannedResult is the answer returned in test mode.
const CannedResult = "Anaheim has an ambitious lineup of infrastructure projects planned for the coming years. " +
	"The city is focusing on enhancing public safety, improving livability, and investing in infrastructure and amenities. " +
	"Key projects include the Anaheim Canyon Metrolink Station improvements, which aim to boost efficiency and reliability for commuters, " +
	"and the OC River Walk initiative, which will revitalize a 2-mile corridor along the Santa Ana River. " +
	"Additionally, the city is working on the Electric System Underground program to improve reliability and aesthetics by moving power lines underground.\n\n" +
	"Anaheim is also committed to sustainable solutions, with projects like the installation of groundwater treatment systems and investments in renewable energy sources. " +
	"The city is enhancing recreational spaces, such as the Brookhurst Splash Pad and the Haskett Makerspace/Media Lab, to foster community engagement and skill development.\n\n" +
	"Moreover, Anaheim is addressing housing insecurity with projects like Finamore Place Affordable Housing and the Center of Hope initiative, which integrates wrap-around services for the unhoused population. " +
	"The city is also focused on revitalizing its corridors, with efforts like the Rebuild Beach Initiative to improve safety and reduce crime along Beach Boulevard.\n\n" +
	"Overall, Anaheim's infrastructure projects are designed to create a more connected, sustainable, and vibrant community for residents and visitors alike."

// QueryDispatcher sends a query to the docset service, or answers from a
// fixed result when TestMode is set.
type QueryDispatcher struct {
	Client   QueryClient
	TestMode bool
}

// Dispatch runs queryText against docsetID.
func (d *QueryDispatcher) Dispatch(ctx context.Context, docsetID, queryText string) (aryn.QueryResult, error) {
	ctx, span := otel.Tracer("services/QueryDispatcher").Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("docset.id", docsetID),
			attribute.Bool("test_mode", d.TestMode),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx)
	if d.TestMode {
		lg.Debug().Str("docset_id", docsetID).Msg("test mode: returning canned result")
		return aryn.QueryResult{QueryID: CannedQueryID, Result: CannedResult}, nil
	}
	if d.Client == nil {
		return aryn.QueryResult{}, upstream("query", errors.New("no query client configured"))
	}

	lg.Debug().Str("docset_id", docsetID).Msg("dispatching live query")
	res, err := d.Client.Query(ctx, docsetID, queryText)
	if err := upstream("query", err); err != nil {
		span.RecordError(err)
		return aryn.QueryResult{}, err
	}
	lg.Info().Str("query_id", res.QueryID).Msg("query completed")
	return res, nil
}
