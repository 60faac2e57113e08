package index

import (
	"sort"
	"time"

	"github.com/repoforge/repomaker/repomaker/apk"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Meta is the repo header of an index.
type Meta struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	URL         string    `yaml:"url" json:"url"`
	Fingerprint string    `yaml:"fingerprint" json:"fingerprint"`
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp"`
}

// App is one application entry with its package versions,
// newest version first.
type App struct {
	PackageID   string        `yaml:"package_id" json:"package_id"`
	Name        string        `yaml:"name" json:"name"`
	Summary     string        `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string        `yaml:"category,omitempty" json:"category,omitempty"`
	Packages    []apk.Package `yaml:"packages" json:"packages"`
}

type Index struct {
	Repo Meta  `yaml:"repo" json:"repo"`
	Apps []App `yaml:"apps" json:"apps"`
}

// Metadata is the curated part of an app entry, keyed by package id.
type Metadata struct {
	Name        string
	Summary     string
	Description string
	Category    string
}

// Build groups packages under their app, applies curated metadata and
// produces a deterministic ordering: apps sorted case-insensitively by
// display name, packages by version code descending. Packages without
// curated metadata get a stub entry named after the package id.
func Build(meta Meta, curated map[string]Metadata, packages []apk.Package) *Index {
	byApp := make(map[string][]apk.Package)
	for _, pkg := range packages {
		byApp[pkg.PackageID] = append(byApp[pkg.PackageID], pkg)
	}

	apps := make([]App, 0, len(byApp))
	for packageID, pkgs := range byApp {
		sort.Slice(pkgs, func(i, j int) bool {
			return pkgs[i].VersionCode > pkgs[j].VersionCode
		})

		app := App{
			PackageID: packageID,
			Name:      packageID,
			Packages:  pkgs,
		}
		if m, ok := curated[packageID]; ok {
			if m.Name != "" {
				app.Name = m.Name
			}
			app.Summary = m.Summary
			app.Description = m.Description
			app.Category = m.Category
		}
		apps = append(apps, app)
	}

	collator := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(apps, func(i, j int) bool {
		if c := collator.CompareString(apps[i].Name, apps[j].Name); c != 0 {
			return c < 0
		}
		return apps[i].PackageID < apps[j].PackageID
	})

	return &Index{Repo: meta, Apps: apps}
}

// Categories returns the sorted distinct categories of the index.
func (idx *Index) Categories() []string {
	seen := make(map[string]struct{})
	for _, app := range idx.Apps {
		if app.Category != "" {
			seen[app.Category] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
