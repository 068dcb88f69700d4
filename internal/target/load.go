package target

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/studiowebux/loadcli/internal/types"
	"gopkg.in/yaml.v3"
)

// Plan is a YAML target plan loaded with --plan. Entries may carry their own
// method, headers and body file; anything left empty inherits the
// flag-level defaults passed to Build.
type Plan struct {
	Targets []PlanEntry `yaml:"targets"`
}

// PlanEntry is one target definition in a plan file
type PlanEntry struct {
	Method   string            `yaml:"method"`
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	BodyFile string            `yaml:"body_file"`
}

// BuildOptions collects the flag-level inputs that produce the target list
type BuildOptions struct {
	URLs     []string // repeatable --url
	URLsFile string   // --urls-file
	PlanFile string   // --plan
	Method   string   // --method, applied to flag-built targets
	Headers  []string // repeatable --header, "Name: Value"
	BodyFile string   // --body-file, applied to flag-built targets
}

// Build assembles the final target list from a plan file, repeated --url
// flags and a urls file, in that order. It returns an error if the result
// is empty or any referenced file cannot be read.
func Build(opts BuildOptions) (*List, error) {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = types.DefaultMethod
	}

	headers := ParseHeaders(opts.Headers)

	var body []byte
	if opts.BodyFile != "" {
		data, err := os.ReadFile(opts.BodyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		body = data
	}

	var targets []types.Target

	if opts.PlanFile != "" {
		planTargets, err := LoadPlan(opts.PlanFile, method, headers)
		if err != nil {
			return nil, err
		}
		targets = append(targets, planTargets...)
	}

	for _, u := range opts.URLs {
		targets = append(targets, types.Target{
			Method:  method,
			URL:     strings.TrimSpace(u),
			Headers: headers,
			Body:    body,
		})
	}

	if opts.URLsFile != "" {
		urls, err := LoadURLsFile(opts.URLsFile)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			targets = append(targets, types.Target{
				Method:  method,
				URL:     u,
				Headers: headers,
				Body:    body,
			})
		}
	}

	return NewList(targets)
}

// LoadURLsFile reads a newline-separated URL list. Blank lines and lines
// starting with '#' are skipped.
func LoadURLsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list file: %w", err)
	}
	return urls, nil
}

// LoadPlan parses a YAML target plan. Plan headers are merged over the
// flag-level headers; the entry's own values win on conflict.
func LoadPlan(path string, defaultMethod string, defaultHeaders map[string]string) ([]types.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	var targets []types.Target
	for _, entry := range plan.Targets {
		method := strings.ToUpper(strings.TrimSpace(entry.Method))
		if method == "" {
			method = defaultMethod
		}

		headers := make(map[string]string)
		for k, v := range defaultHeaders {
			headers[k] = v
		}
		for k, v := range entry.Headers {
			headers[k] = v
		}

		var body []byte
		if entry.BodyFile != "" {
			bodyPath := entry.BodyFile
			if !filepath.IsAbs(bodyPath) {
				bodyPath = filepath.Join(filepath.Dir(path), bodyPath)
			}
			data, err := os.ReadFile(bodyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read plan body file %s: %w", entry.BodyFile, err)
			}
			body = data
		}

		targets = append(targets, types.Target{
			Method:  method,
			URL:     strings.TrimSpace(entry.URL),
			Headers: headers,
			Body:    body,
		})
	}
	return targets, nil
}

// ParseHeader splits a "Name: Value" header string on the first colon.
// Malformed entries (no colon, empty name) return ok=false and are skipped
// by callers.
func ParseHeader(raw string) (name string, value string, ok bool) {
	idx := strings.Index(raw, ":")
	if idx == -1 {
		return "", "", false
	}
	name = strings.TrimSpace(raw[:idx])
	value = strings.TrimSpace(raw[idx+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// ParseHeaders parses repeated --header flags, silently skipping malformed
// entries
func ParseHeaders(raw []string) map[string]string {
	headers := make(map[string]string)
	for _, h := range raw {
		if name, value, ok := ParseHeader(h); ok {
			headers[name] = value
		}
	}
	return headers
}
