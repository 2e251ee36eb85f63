package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

func TestBuildMovementQuery(t *testing.T) {
	since := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	until := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	const base = "SELECT id, variant_id, type, quantity_change, reason, created_at FROM stock_movements WHERE variant_id = $1"

	tests := []struct {
		name     string
		filter   ports.MovementFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "full_history",
			wantSQL:  base + " ORDER BY created_at DESC, id ASC",
			wantArgs: []interface{}{int64(7)},
		},
		{
			name:     "type_filter",
			filter:   ports.MovementFilter{Type: domain.MovementOut},
			wantSQL:  base + " AND type = $2 ORDER BY created_at DESC, id ASC",
			wantArgs: []interface{}{int64(7), "OUT"},
		},
		{
			name:     "time_range_is_normalised_to_utc",
			filter:   ports.MovementFilter{Since: &since, Until: &until},
			wantSQL:  base + " AND created_at >= $2 AND created_at <= $3 ORDER BY created_at DESC, id ASC",
			wantArgs: []interface{}{int64(7), since.UTC(), until},
		},
		{
			name:     "pagination",
			filter:   ports.MovementFilter{Limit: 20, Offset: 40},
			wantSQL:  base + " ORDER BY created_at DESC, id ASC LIMIT 20 OFFSET 40",
			wantArgs: []interface{}{int64(7)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildMovementQuery(7, tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
