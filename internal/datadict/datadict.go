// Package datadict loads data dictionaries: named categories of coded
// values with a display text, such as order states or customer tiers.
//
// Dictionaries give meaning to the integer codes that multi-valued and
// single-valued query parameters carry. They are loaded once and are
// read-only afterwards.
package datadict

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one entry of a category.
type Item struct {
	Text string `yaml:"text" json:"text"`
	Code int    `yaml:"code" json:"code"`
}

// document is the on-disk YAML shape.
type document struct {
	Dictionaries map[string][]Item `yaml:"dictionaries"`
}

// Dict is a loaded data dictionary.
type Dict struct {
	categories map[string][]Item
}

// Load reads and parses a dictionary YAML file.
func Load(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dictionary: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse parses a dictionary document. Unknown fields are rejected, and
// codes must be unique within a category.
func Parse(data []byte) (*Dict, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for name, items := range doc.Dictionaries {
		seen := make(map[int]string, len(items))
		for _, item := range items {
			if strings.TrimSpace(item.Text) == "" {
				return nil, fmt.Errorf("category %q: code %d has no text", name, item.Code)
			}
			if prev, ok := seen[item.Code]; ok {
				return nil, fmt.Errorf("category %q: code %d used by both %q and %q", name, item.Code, prev, item.Text)
			}
			seen[item.Code] = item.Text
		}
	}

	if doc.Dictionaries == nil {
		doc.Dictionaries = make(map[string][]Item)
	}
	return &Dict{categories: doc.Dictionaries}, nil
}

// Categories returns the category names in sorted order.
func (d *Dict) Categories() []string {
	names := make([]string, 0, len(d.categories))
	for name := range d.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items returns the items of a category in document order. Unknown
// categories yield an empty list.
func (d *Dict) Items(category string) []Item {
	items := d.categories[category]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Text returns the display text for a code.
func (d *Dict) Text(category string, code int) (string, bool) {
	for _, item := range d.categories[category] {
		if item.Code == code {
			return item.Text, true
		}
	}
	return "", false
}

// Code returns the code for a display text, compared case-insensitively.
func (d *Dict) Code(category, text string) (int, bool) {
	for _, item := range d.categories[category] {
		if strings.EqualFold(item.Text, text) {
			return item.Code, true
		}
	}
	return 0, false
}

// Codes translates display texts into the comma-separated code list a
// multi-valued parameter expects. Pieces that are already integers pass
// through unchanged.
func (d *Dict) Codes(category string, texts ...string) (string, error) {
	codes := make([]string, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if _, err := strconv.Atoi(text); err == nil {
			codes = append(codes, text)
			continue
		}
		code, ok := d.Code(category, text)
		if !ok {
			return "", fmt.Errorf("category %q has no item %q", category, text)
		}
		codes = append(codes, strconv.Itoa(code))
	}
	return strings.Join(codes, ","), nil
}
