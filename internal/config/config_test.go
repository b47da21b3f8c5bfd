package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func validBase() *viper.Viper {
	v := viper.New()
	v.Set("db.path", "data/test.db")
	v.Set("docs.dir", "doc_dir")
	v.Set("crawler.formats", []string{"html", "pdf"})
	v.Set("crawler.batch_size", 50)
	v.Set("crawler.workers", 10)
	v.Set("render.format", "tiff")
	v.Set("render.resolution", 300)
	return v
}

func TestLoad(t *testing.T) {
	v := validBase()
	v.Set("http.timeout_seconds", 30)
	v.Set("sources", []map[string]any{
		{"url": "http://curia/listing", "protocol": "curia_cl"},
	})

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "data/test.db", cfg.DB.Path)
	require.Equal(t, []string{"html", "pdf"}, cfg.Crawler.Formats)
	require.Equal(t, 30*time.Second, cfg.HTTP.Timeout())
	require.Len(t, cfg.Sources, 1)
	require.Equal(t, "curia_cl", cfg.Sources[0].Protocol)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *viper.Viper)
	}{
		{"empty db path", func(v *viper.Viper) { v.Set("db.path", "") }},
		{"empty docs dir", func(v *viper.Viper) { v.Set("docs.dir", "") }},
		{"zero batch size", func(v *viper.Viper) { v.Set("crawler.batch_size", 0) }},
		{"zero workers", func(v *viper.Viper) { v.Set("crawler.workers", 0) }},
		{"no formats", func(v *viper.Viper) { v.Set("crawler.formats", []string{}) }},
		{"bad render format", func(v *viper.Viper) { v.Set("render.format", "bmp") }},
		{"zero resolution", func(v *viper.Viper) { v.Set("render.resolution", 0) }},
		{"source without protocol", func(v *viper.Viper) {
			v.Set("sources", []map[string]any{{"url": "http://x"}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validBase()
			tt.mutate(v)
			_, err := Load(v)
			require.Error(t, err)
		})
	}
}
