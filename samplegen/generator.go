// Package samplegen is a reference Generator implementation satisfying
// dispatch.Generator, grounded on output_generator.py's keyword-to-reply
// table. Paired with sampleparser, it is wired into the dryrun harness and
// the pipeline's own tests — a real deployment supplies its own generator.
package samplegen

import (
	"aprsbot/dispatch"
	"aprsbot/sampleparser"
)

// loremIpsum is long enough to exercise the text splitter's multi-segment
// path, matching the ">= 600 character" reply the "lorem" command produces.
const loremIpsum = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur. Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia deserunt mollit anim id est laborum. Sed ut perspiciatis unde omnis iste natus error sit voluptatem accusantium doloremque laudantium, totam rem aperiam, eaque ipsa quae ab illo inventore veritatis et quasi architecto beatae vitae dicta sunt explicabo."

// Generator implements dispatch.Generator.
type Generator struct{}

// New constructs a Generator.
func New() *Generator { return &Generator{} }

var _ dispatch.Generator = (*Generator)(nil)

// Generate renders a reply from the response object sampleparser.Parser
// produced.
func (g *Generator) Generate(responseObject any) (bool, string, bool) {
	resp, ok := responseObject.(sampleparser.Response)
	if !ok {
		return false, "", false
	}

	switch resp.Command {
	case "ping":
		return true, "pong", false
	case "version":
		return true, "aprsbot demo client v1.0", false
	case "help":
		return true, "commands: ping, version, help, greetings, lorem", false
	case "greetings":
		return true, "Hello " + resp.FromCallsign, false
	case "lorem":
		return true, loremIpsum, false
	default:
		return false, "", false
	}
}

