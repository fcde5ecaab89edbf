// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	MoldfileNotFoundId Id = iota + 1
	MoldfileParseErrorId
	RecipeNotFoundId
	ModuleNotFoundId
	DependencyCycleId
	IncludeCycleId
	VersionMismatchId
	FetchFailedId
	CommandNotFoundId
	PermissionDeniedId
	RecipeFailedId
	ConfigLoadFailedId
	InvalidRuntimeId
	InvalidCommandLineId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
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

// Render renders the issue with the glamour style at stylePath, which may
// also be a built-in style name such as "dark" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	moldfileNotFoundIssue = &Issue{
		id: MoldfileNotFoundId,
		mdMsg: `
# No moldfile found!

mold looks for a moldfile in the current directory and then in each parent
directory, trying these names in order:

- mold.cue
- mold.yaml
- mold.yml
- moldfile
- Moldfile

## Things you can try:
- Create a mold.yaml in your project root:
~~~yaml
version: "0.6"
recipes:
  build:
    help: Build the project
    command: go build ./...
~~~

- Or point mold at a file explicitly:
~~~
$ mold -f path/to/mold.yaml build
~~~`,
	}

	moldfileParseErrorIssue = &Issue{
		id: MoldfileParseErrorId,
		mdMsg: `
# Failed to parse the moldfile!

The moldfile contains syntax errors or an invalid recipe.

## Common issues:
- A recipe declares more than one of ` + "`command`, `shell`/`script` and `url`" + `
- ` + "`ref` or `file`" + ` without a ` + "`url`" + `
- A recipe name containing "/"
- Unknown field names, or the missing ` + "`version`" + ` field

## Things you can try:
- Check the error message above for the specific line
- Run with verbose mode for more details:
~~~
$ mold --verbose
~~~`,
	}

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# Recipe not found!

The recipe you asked for is not defined in the moldfile or in anything it
includes.

## Things you can try:
- List the available recipes by running mold without arguments:
~~~
$ mold
~~~

- Check for typos in the recipe name
- Recipes adopted from an include carry the include's prefix`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

A name of the form ` + "`module/recipe`" + ` refers to a module recipe, but no
module recipe with that name exists.

## Things you can try:
- List the recipes of a module by running it by name:
~~~
$ mold tools
~~~

- Declare the module in your moldfile:
~~~yaml
recipes:
  tools:
    url: https://github.com/example/tools.git
    ref: v1
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Your recipe requirements form a cycle, which would never finish.

## Example of a cycle:
~~~yaml
recipes:
  a:
    command: echo a
    requires: [b]
  b:
    command: echo b
    requires: [a]   # Cycle: a -> b -> a
~~~

## Things you can try:
- Review the requires fields along the cycle shown above
- Remove the circular requirement`,
	}

	includeCycleIssue = &Issue{
		id: IncludeCycleId,
		mdMsg: `
# Include cycle detected!

A moldfile ends up including itself through its includes.

## Things you can try:
- Review the includes of each file in the chain shown above
- Move the shared recipes into a separate moldfile both can include`,
	}

	versionMismatchIssue = &Issue{
		id: VersionMismatchId,
		mdMsg: `
# Unsupported moldfile version!

A moldfile requires a mold version that does not match the one running.

## Things you can try:
- Upgrade mold to a version matching the requirement
- Pin the include or module to a ref that supports your mold version`,
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Failed to fetch a remote!

mold could not clone, fetch or check out a remote moldfile.

## Things you can try:
- Check the URL and the ref of the include or module
- Check your network connection and credentials
- For private repositories over HTTPS set GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN
- Use your local git installation, which honors your git configuration:
~~~
$ mold --git build
~~~

- Start over with a clean state directory:
~~~
$ mold --clean
~~~`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

The program a recipe runs is not installed or is not on your PATH.

## Things you can try:
- Install the missing program
- Check the PATH in your environment
- Check the first word of the recipe's command`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The program a recipe runs exists but cannot be executed.

## Things you can try:
- Make the file executable:
~~~
$ chmod +x path/to/program
~~~

- Check the permissions of the working directory`,
	}

	recipeFailedIssue = &Issue{
		id: RecipeFailedId,
		mdMsg: `
# Recipe failed!

A recipe exited with a non-zero status, so the remaining recipes were not run.

## Things you can try:
- Check the output of the recipe above
- Show what the recipe runs:
~~~
$ mold --explain build
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The mold configuration file could not be loaded.

## Things you can try:
- Check the file for CUE syntax errors
- Show the path mold reads its configuration from:
~~~
$ mold config path
~~~

- Write a fresh default configuration:
~~~
$ mold config init
~~~`,
	}

	invalidRuntimeIssue = &Issue{
		id: InvalidRuntimeId,
		mdMsg: `
# Invalid runtime!

mold supports two runtimes:

- **native**: starts each command as a child process
- **virtual**: runs each command through the built-in mvdan/sh interpreter

## Things you can try:
- Set a valid runtime in your configuration:
~~~cue
runtime: "native"
~~~`,
	}

	invalidCommandLineIssue = &Issue{
		id: InvalidCommandLineId,
		mdMsg: `
# Invalid command line!

A recipe's command could not be split into words, usually because of an
unbalanced quote or a trailing backslash.

## Things you can try:
- Balance the quotes in the command
- Use the list form to avoid quoting entirely:
~~~yaml
command: [echo, "it's fine"]
~~~`,
	}

	issues = map[Id]*Issue{
		moldfileNotFoundIssue.Id():   moldfileNotFoundIssue,
		moldfileParseErrorIssue.Id(): moldfileParseErrorIssue,
		recipeNotFoundIssue.Id():     recipeNotFoundIssue,
		moduleNotFoundIssue.Id():     moduleNotFoundIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		includeCycleIssue.Id():       includeCycleIssue,
		versionMismatchIssue.Id():    versionMismatchIssue,
		fetchFailedIssue.Id():        fetchFailedIssue,
		commandNotFoundIssue.Id():    commandNotFoundIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
		recipeFailedIssue.Id():       recipeFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		invalidRuntimeIssue.Id():     invalidRuntimeIssue,
		invalidCommandLineIssue.Id(): invalidCommandLineIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
