package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// decode turns a merged configuration map into a typed Config. Input is
// weakly typed so values from flags and environment ("8080", "true")
// land in numeric and boolean fields.
func decode(m map[string]any) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}

	if err := decoder.Decode(cloneMap(m)); err != nil {
		return nil, err
	}

	// Empty opaque maps are nil so decoded and round-tripped values agree.
	if len(cfg.Extra) == 0 {
		cfg.Extra = nil
	}
	if len(cfg.Webpack.Extra) == 0 {
		cfg.Webpack.Extra = nil
	}
	if len(cfg.Webpack.DevServer.Extra) == 0 {
		cfg.Webpack.DevServer.Extra = nil
	}
	if len(cfg.Jest.Extra) == 0 {
		cfg.Jest.Extra = nil
	}
	if len(cfg.Lint.Extra) == 0 {
		cfg.Lint.Extra = nil
	}
	if len(cfg.AI.Extra) == 0 {
		cfg.AI.Extra = nil
	}

	return &cfg, nil
}
