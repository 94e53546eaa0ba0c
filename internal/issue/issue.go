// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ScriptNotFoundId Id = iota + 1
	MalformedReferenceId
	PackageNotFoundId
	VersionNotFoundId
	InstallationFailedId
	InvalidPackageConfigId
	ImportCycleId
	MaxDepthExceededId
	RearrangementFailedId
	ConfigLoadFailedId
	FeedUnavailableId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // lookup key
	mdMsg    MarkdownMsg // rendered body
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue body plus a "See also" list of links using the
// given glamour style ("dark", "light", "notty", or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

const docsBase = "https://github.com/invowk/loadremote/blob/main/README.md"

var (
	render = glamour.Render

	scriptNotFoundIssue = &Issue{
		id: ScriptNotFoundId,
		mdMsg: `
# Script not found

The script passed to "loadremote compose" could not be read.

## Things you can try:
- Check the path and the current working directory
- Pass an absolute path
`,
		docLinks: []HttpLink{docsBase + "#compose"},
	}

	malformedReferenceIssue = &Issue{
		id: MalformedReferenceId,
		mdMsg: `
# Malformed package reference

A "#load" or "#l" directive names a "nuget:" reference that cannot be parsed.

## Things you can try:
- Use the form "#load "nuget:?package=Id&version=1.2.3""
- Put a custom feed before the query: "nuget:https://feed/index.json?package=Id"
- Escape special characters in the query string
`,
		docLinks: []HttpLink{docsBase + "#references"},
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found

The feed does not know the requested package id.

## Things you can try:
- Check the spelling of the "package" parameter
- Check which feed the reference resolves against ("--source" or the reference location)
`,
		docLinks: []HttpLink{docsBase + "#sources"},
	}

	versionNotFoundIssue = &Issue{
		id: VersionNotFoundId,
		mdMsg: `
# Version not found

None of the published versions satisfies the request.

## Things you can try:
- Drop the "version" parameter to use the latest stable version
- Add "prerelease" to the reference to allow prerelease versions
`,
		docLinks: []HttpLink{docsBase + "#references"},
	}

	installationFailedIssue = &Issue{
		id: InstallationFailedId,
		mdMsg: `
# Installation failed

A package could not be installed or contained no script files.

## Things you can try:
- Check that the package ships files with the configured script extension
- Run "loadremote cache purge" and retry
- Re-run with "--verbose" to see the full error chain
`,
		docLinks: []HttpLink{docsBase + "#troubleshooting"},
	}

	invalidPackageConfigIssue = &Issue{
		id: InvalidPackageConfigId,
		mdMsg: `
# Invalid package configuration

A package ships a "config.json" whose "LoadFileOrder" cannot be applied.

## Things you can try:
- Make sure "config.json" is valid JSON
- List file names relative to the package content directory
`,
		docLinks: []HttpLink{docsBase + "#file-order"},
	}

	importCycleIssue = &Issue{
		id: ImportCycleId,
		mdMsg: `
# Import cycle

Packages load each other in a loop, so no order satisfies every directive.

## Things you can try:
- Move the shared code into a package both sides load
- Inspect the chain with "loadremote compose --graph deps.svg"
`,
		docLinks: []HttpLink{docsBase + "#cycles"},
	}

	maxDepthExceededIssue = &Issue{
		id: MaxDepthExceededId,
		mdMsg: `
# Maximum nesting depth exceeded

The chain of nested package loads is deeper than the configured limit.

## Things you can try:
- Raise "max_depth" in the configuration
- Flatten the package hierarchy
`,
		docLinks: []HttpLink{docsBase + "#configuration"},
	}

	rearrangementFailedIssue = &Issue{
		id: RearrangementFailedId,
		mdMsg: `
# Script rearrangement failed

The merged script lost track of where a package was loaded. This is a bug.

## Things you can try:
- Re-run with "--verbose" and report the output
`,
		extLinks: []HttpLink{"https://github.com/invowk/loadremote/issues"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file could not be read or did not match the schema.

## Things you can try:
- Print the effective configuration with "loadremote config show"
- Write a fresh default with "loadremote config init"
- Check "LOADREMOTE_*" environment variables and the local ".env" file
`,
		docLinks: []HttpLink{docsBase + "#configuration"},
	}

	feedUnavailableIssue = &Issue{
		id: FeedUnavailableId,
		mdMsg: `
# Feed unavailable

The package feed could not be reached or answered with a server error.

## Things you can try:
- Check network access to the feed
- Raise "http.retries" or "http.timeout"
- Set the token variable named by "http.token_env" for private feeds
`,
		docLinks: []HttpLink{docsBase + "#sources"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

The install root or output file is not writable.

## Things you can try:
- Choose another directory with "--install-root"
- Check ownership of the tools directory
`,
		docLinks: []HttpLink{docsBase + "#configuration"},
	}

	issues = map[Id]*Issue{
		scriptNotFoundIssue.Id():       scriptNotFoundIssue,
		malformedReferenceIssue.Id():   malformedReferenceIssue,
		packageNotFoundIssue.Id():      packageNotFoundIssue,
		versionNotFoundIssue.Id():      versionNotFoundIssue,
		installationFailedIssue.Id():   installationFailedIssue,
		invalidPackageConfigIssue.Id(): invalidPackageConfigIssue,
		importCycleIssue.Id():          importCycleIssue,
		maxDepthExceededIssue.Id():     maxDepthExceededIssue,
		rearrangementFailedIssue.Id():  rearrangementFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		feedUnavailableIssue.Id():      feedUnavailableIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
