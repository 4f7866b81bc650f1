package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsaristov/boop-final-prototype/internal/gateway"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

// Installer moves tools between the library repo and the local store,
// searching library metadata to satisfy loose requests.
type Installer struct {
	gh    *GitHubClient
	store *tool.Store
	llm   gateway.Client
}

func NewInstaller(gh *GitHubClient, store *tool.Store, llm gateway.Client) *Installer {
	return &Installer{gh: gh, store: store, llm: llm}
}

// ListInstalled returns the locally installed tool names.
func (i *Installer) ListInstalled() []string {
	return i.store.ListNamespaces()
}

// ListAvailable returns the tool names published in the library.
func (i *Installer) ListAvailable(ctx context.Context) ([]string, error) {
	return i.gh.ListTools(ctx)
}

// InstallByName downloads one library tool into the local store. Already
// installed tools are left alone.
func (i *Installer) InstallByName(ctx context.Context, name string) error {
	name = tool.NormalizeName(name)
	if i.store.Exists(name) {
		logging.Library("%s already installed", name)
		return nil
	}
	return i.gh.Download(ctx, name, i.store.Path(name))
}

// FindAndInstall searches library tool metadata for a query and installs
// the best hit. When nothing matches directly, one gateway call rephrases
// the query into search terms and the search runs once more.
func (i *Installer) FindAndInstall(ctx context.Context, query string) (string, error) {
	names, err := i.gh.ListTools(ctx)
	if err != nil {
		return "", err
	}

	if name := i.search(ctx, names, strings.Fields(strings.ToLower(query))); name != "" {
		return name, i.InstallByName(ctx, name)
	}

	terms := i.improveSearchTerms(ctx, query)
	if name := i.search(ctx, names, terms); name != "" {
		return name, i.InstallByName(ctx, name)
	}

	return "", fmt.Errorf("no library tool matches %q", query)
}

// search scores each library tool by term hits against its name,
// description, and tags. Best non-zero score wins.
func (i *Installer) search(ctx context.Context, names, terms []string) string {
	if len(terms) == 0 {
		return ""
	}

	best, bestScore := "", 0
	for _, name := range names {
		haystack := strings.ToLower(name)
		if data, err := i.gh.FetchFile(ctx, toolsPrefix+"/"+name+"/"+tool.MetadataFile); err == nil {
			var md tool.Metadata
			if json.Unmarshal(data, &md) == nil {
				haystack += " " + strings.ToLower(md.Description) + " " + strings.ToLower(strings.Join(md.Tags, " "))
			}
		}

		score := 0
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}

// improveSearchTerms asks the gateway to rephrase a query into a few
// search terms. Best effort; failure yields no terms.
func (i *Installer) improveSearchTerms(ctx context.Context, query string) []string {
	raw, err := i.llm.CompleteWithSystem(ctx,
		"You turn a tool request into search terms. Respond with 3-5 lowercase keywords separated by spaces, nothing else.",
		query)
	if err != nil {
		logging.Library("search term rephrasing failed: %v", err)
		return nil
	}
	return strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
}

// Publish refreshes a local tool's metadata and tags, then uploads its
// namespace to the library.
func (i *Installer) Publish(ctx context.Context, name string) error {
	name = tool.NormalizeName(name)
	if !i.store.Exists(name) {
		return fmt.Errorf("tool %s is not installed", name)
	}

	md := tool.GenerateMetadata(i.store.Path(name))
	source, _ := i.store.ReadDoc(name, tool.SourceFile)
	md.Tags = AutoTag(md.Description, source)
	if err := i.store.WriteMetadata(name, md); err != nil {
		return err
	}

	return i.gh.Upload(ctx, name, i.store.Path(name))
}
