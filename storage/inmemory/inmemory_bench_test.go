package inmemory

import (
	"context"
	"strconv"
	"testing"

	"github.com/and161185/terraria-exporter/model"
)

func BenchmarkReplace(b *testing.B) {
	ctx := context.Background()
	st := NewMemStorage()
	set := make(model.MetricSet, 0, 1000)
	for i := range 1000 {
		set = append(set, model.Sample{
			Name:   "terraria_chest_item_count",
			Labels: map[string]string{"chest": strconv.Itoa(i), "item": "Wood"},
			Value:  float64(i),
		})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.Replace(ctx, set)
	}
}

func BenchmarkGet(b *testing.B) {
	ctx := context.Background()
	st := NewMemStorage()
	_ = st.Replace(ctx, model.MetricSet{{Name: "terraria_players_max", Value: 8}})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.Get(ctx, "terraria_players_max")
	}
}
