// Package config builds layout configurations from the outside world.
//
// Two sources are supported. String attribute maps, as an element's
// attributes would provide them, go through [FromAttributes]:
//
//	cfg, warnings := config.FromAttributes(map[string]string{
//	    "cols":       "auto",
//	    "gap":        "16px",
//	    "columnlock": "",
//	})
//
// Configuration files in TOML or YAML go through [Load]. Both paths end in
// [layout.Config.Normalize], so a bad value never stops a layout: it is
// replaced by its default and reported as an INVALID_CONFIG warning.
package config
