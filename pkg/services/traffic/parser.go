package traffic

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/models/upstream"
)

var (
	ErrAllEndpointsFailed = errors.New("all traffic endpoints failed")
	ErrUnsuccessful       = errors.New("traffic response not successful")
	ErrMissingData        = errors.New("traffic response has no data collection")
	ErrMalformed          = errors.New("traffic response has an unexpected shape")
	ErrNoBranches         = errors.New("traffic response has no configured branch")
)

// countKinds lists every countType the upstream is known to send
var countKinds = map[string]domain.CountKind{
	"日": domain.CountKindDay,
	"周": domain.CountKindWeek,
}

// directions lists every dateType the upstream is known to send
var directions = map[int]domain.Direction{
	0: domain.DirectionIn,
	1: domain.DirectionOut,
}

type Parser struct {
	catalog *domain.BranchCatalog
}

func NewParser(catalog *domain.BranchCatalog) *Parser {
	return &Parser{catalog: catalog}
}

// Parse validates the envelope and folds it into a snapshot of the configured branches
func (p *Parser) Parse(ctx context.Context, envelope *upstream.FlowEnvelope) (domain.FlowSnapshot, error) {
	logger := zerolog.Ctx(ctx)

	if envelope == nil || envelope.IsSuccess == nil || !*envelope.IsSuccess {
		logger.Error().Msg("traffic response is not successful")
		return nil, ErrUnsuccessful
	}
	if envelope.Data == nil {
		logger.Error().Msg("traffic response carries no data")
		return nil, ErrMissingData
	}

	snapshot := make(domain.FlowSnapshot)
	for _, loc := range envelope.Data {
		id := domain.BranchID(loc.OrgLocation)
		if !p.catalog.Contains(id) {
			logger.Debug().Str("location", loc.OrgLocation).Msg("skipping unconfigured location")
			continue
		}

		name := loc.OrgLocationName
		if name == "" {
			name = p.catalog.Name(id)
		}
		snapshot[id] = domain.SummarizeCounts(name, p.periodCounts(logger, loc))
	}

	if len(snapshot) == 0 {
		logger.Error().Msg("no configured branch in traffic response")
		return nil, ErrNoBranches
	}
	return snapshot, nil
}

func (p *Parser) periodCounts(logger *zerolog.Logger, loc upstream.LocationFlow) []domain.PeriodCount {
	counts := make([]domain.PeriodCount, 0, len(loc.FCount))
	for _, c := range loc.FCount {
		kind, ok := countKinds[c.CountType]
		if !ok {
			logger.Warn().
				Str("location", loc.OrgLocation).
				Str("count_type", c.CountType).
				Msg("unrecognized count type")
			continue
		}
		if c.DateType == nil {
			logger.Warn().Str("location", loc.OrgLocation).Msg("count without date type")
			continue
		}
		direction, ok := directions[*c.DateType]
		if !ok {
			logger.Warn().
				Str("location", loc.OrgLocation).
				Int("date_type", *c.DateType).
				Msg("unrecognized date type")
			continue
		}

		var n int64
		if c.PersonCount != nil {
			n = *c.PersonCount
		}
		if n < 0 {
			logger.Warn().
				Str("location", loc.OrgLocation).
				Int64("person_count", n).
				Msg("negative person count")
			continue
		}

		counts = append(counts, domain.PeriodCount{Kind: kind, Direction: direction, Count: n})
	}
	return counts
}
