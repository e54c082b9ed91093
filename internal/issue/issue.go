// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Well-known failure ids. Zero means "no guidance".
const (
	DocumentNotFoundId Id = iota + 1
	UnsupportedFileExtensionId
	InvalidDocumentId
	ConfigLoadFailedId
	ElementNotFoundId
	ChildNotAllowedId
	InvalidExtractLevelId
)

type (
	// Id identifies a well-known failure.
	Id int

	// MarkdownMsg is the Markdown guidance shown for an issue.
	MarkdownMsg string

	// HttpLink is a documentation link.
	HttpLink string

	// Renderer renders Markdown for the terminal.
	Renderer interface {
		Render(in string, stylePath string) (string, error)
	}

	// Issue is Markdown guidance for a well-known failure.
	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

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

// Render renders the guidance with the glamour style at stylePath ("" for
// the default style), followed by its links.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, links := range [][]HttpLink{i.docLinks, i.extLinks} {
			for _, link := range links {
				md.WriteString("\n- <" + string(link) + ">")
			}
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	documentNotFoundIssue = &Issue{
		id: DocumentNotFoundId,
		mdMsg: `
# Document not found!

No document database with that name exists in the data directory.

## Things you can try:
- Import the SCL file first:
~~~
$ sclkit import station.scd
~~~

- List the directory sclkit reads documents from:
~~~
$ sclkit config show
~~~

- Pass the path of the ` + "`.db`" + ` file instead of its name.`,
	}

	unsupportedFileExtensionIssue = &Issue{
		id: UnsupportedFileExtensionId,
		mdMsg: `
# Unsupported file extension!

sclkit only reads and writes SCL files.

## Supported extensions:
- ` + "`.scd` `.ssd`" + ` substation and system descriptions
- ` + "`.fsd` `.asd` `.isd`" + ` function, application and IED specifications
- ` + "`.xml`" + `

## Things you can try:
- Rename the file if it is an SCL document with another extension
- Check that you passed the SCL file and not an attachment`,
	}

	invalidDocumentIssue = &Issue{
		id: InvalidDocumentId,
		mdMsg: `
# Invalid SCL document!

The file is not well-formed XML, or its root element is not ` + "`SCL`" + `.

## Common issues:
- A truncated or partially written file
- More than one root element
- Two elements sharing a ` + "`dev:id`" + ` attribute

## Things you can try:
- Open the file in an XML-aware editor to find the broken element
- Import without ` + "`--custom-ids`" + ` to let sclkit assign fresh ids`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file contains invalid CUE or values sclkit does not accept.

## Example configuration:
~~~cue
data_dir:    "/srv/scl"
id_strategy: "uuid_v7"
log_level:   "info"

history: {
	who:            "Jane Engineer"
	version_policy: "increment"
}

extract: {
	level:              "Bay"
	resolve_data_types: true
}
~~~

## Things you can try:
- Write a fresh default file:
~~~
$ sclkit config init
~~~

- Check the ` + "`SCLKIT_*`" + ` environment variables, which override the file`,
	}

	elementNotFoundIssue = &Issue{
		id: ElementNotFoundId,
		mdMsg: `
# Element not found!

No element matches the id or tag you asked for.

## Things you can try:
- Element ids are assigned at import time. Re-import with ` + "`--custom-ids`" + `
  to take them from ` + "`dev:id`" + ` attributes instead
- Export the document with ` + "`--with-ids`" + ` to see the ids:
~~~
$ sclkit export station --with-ids
~~~`,
	}

	childNotAllowedIssue = &Issue{
		id: ChildNotAllowedId,
		mdMsg: `
# Child not allowed!

The SCL 2019C1 schema does not allow this element under its parent, or the
parent already has the single child of this type it may hold.

## Things you can try:
- Extract to a different level with ` + "`--level Substation|VoltageLevel|Bay`" + `
- Check the tag name spelling; tag names are case sensitive`,
	}

	invalidExtractLevelIssue = &Issue{
		id: InvalidExtractLevelId,
		mdMsg: `
# Invalid extraction level!

Extracted functions can only be placed under a ` + "`Substation`" + `,
` + "`VoltageLevel`" + ` or ` + "`Bay`" + `.

## Things you can try:
~~~
$ sclkit extract function source f1 target --level Bay
~~~`,
	}

	issues = map[Id]*Issue{
		documentNotFoundIssue.Id():         documentNotFoundIssue,
		unsupportedFileExtensionIssue.Id(): unsupportedFileExtensionIssue,
		invalidDocumentIssue.Id():          invalidDocumentIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		elementNotFoundIssue.Id():          elementNotFoundIssue,
		childNotAllowedIssue.Id():          childNotAllowedIssue,
		invalidExtractLevelIssue.Id():      invalidExtractLevelIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
