package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// parseValue decodes arg as JSON, falling back to the raw string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

func outputFormat() string {
	return strings.ToLower(viper.GetString("format"))
}

// documentFormat picks the decoder for a save input from its extension,
// falling back to --format.
func documentFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	return outputFormat()
}

func decodeDocument(data []byte, format string) (any, error) {
	var doc any
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid format %s", format)
	}
	return doc, nil
}

func printValue(w io.Writer, v any, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "yaml":
		out, err = yaml.Marshal(v)
	case "json", "":
		out, err = json.MarshalIndent(v, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("invalid format %s", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// watch prints key each time its value changes until ctx is done.
// Reads go through the cache, so the backend is consulted at most once
// per cache TTL.
func watch(ctx context.Context, w io.Writer, key string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last any
	first := true
	for {
		v := store.Get(ctx, key)
		if first || !reflect.DeepEqual(v, last) {
			fmt.Fprintf(w, "%s %s\n", time.Now().Format(time.RFC3339), key)
			if err := printValue(w, v, outputFormat()); err != nil {
				return err
			}
			last, first = v, false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
