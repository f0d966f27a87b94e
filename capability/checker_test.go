package capability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/reglet-dev/reglet-scripthost/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietChecker(grants *capability.GrantSet, opts ...capability.CheckerOption) *capability.Checker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return capability.NewChecker(grants, append([]capability.CheckerOption{capability.WithCheckerLogger(logger)}, opts...)...)
}

func TestChecker_Check(t *testing.T) {
	c := quietChecker(capability.NewGrantSet("spawn"))

	tests := []struct {
		name     string
		facility string
		wantErr  bool
	}{
		{"granted", "spawn", false},
		{"not granted", "camera", true},
		{"empty name", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Check(context.Background(), tt.facility)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, !tt.wantErr, c.Granted(tt.facility))
		})
	}
}

func TestChecker_DeniedError(t *testing.T) {
	c := quietChecker(nil)

	err := c.Check(context.Background(), "spawn")
	require.ErrorIs(t, err, capability.ErrFacilityDenied)

	var denied *capability.DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "spawn", denied.Facility)
	assert.Equal(t, "facility spawn denied: not granted for this session", err.Error())
}

func TestChecker_DenialHandler(t *testing.T) {
	var got []string
	c := quietChecker(capability.NewGrantSet(), capability.WithDenialHandler(func(_ context.Context, facility, message string) {
		got = append(got, facility+": "+message)
	}))

	require.Error(t, c.Check(context.Background(), "spawn"))
	assert.Equal(t, []string{"spawn: not granted for this session"}, got)

	got = nil
	granted := quietChecker(capability.NewGrantSet("spawn"), capability.WithDenialHandler(func(context.Context, string, string) {
		got = append(got, "called")
	}))
	require.NoError(t, granted.Check(context.Background(), "spawn"))
	assert.Empty(t, got)
}

func TestChecker_CopiesGrants(t *testing.T) {
	g := capability.NewGrantSet("spawn")
	c := quietChecker(g)

	g.Facilities = nil
	assert.True(t, c.Granted("spawn"))

	out := c.Grants()
	out.Facilities = nil
	assert.True(t, c.Granted("spawn"))
}

func BenchmarkChecker_Check(b *testing.B) {
	c := quietChecker(capability.NewGrantSet("spawn"))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Check(ctx, "spawn")
	}
}

func FuzzParseHexColor(f *testing.F) {
	f.Add("#fff")
	f.Add("#336699")
	f.Add("336699cc")
	f.Add("#zzz")

	f.Fuzz(func(t *testing.T, s string) {
		c, err := capability.ParseHexColor(s)
		if err != nil {
			return
		}
		for _, v := range []float64{c.R, c.G, c.B, c.A} {
			if v < 0 || v > 1 {
				t.Fatalf("component out of range for %q: %v", s, c)
			}
		}
	})
}
