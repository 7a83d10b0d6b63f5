// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"atomos-cli/internal/issue"
)

// renderError prints err with its catalog guidance and returns an
// *ExitError so cobra does not print it a second time.
func renderError(cmd *cobra.Command, app *App, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	app.printError(err)
	return &ExitError{Code: 1, Err: err}
}

// printError writes err to stderr. Actionable errors carry their
// suggestions and, when linked, the catalog entry.
func (a *App) printError(err error) {
	ae, ok := issue.As(err)
	if !ok {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
		return
	}

	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+ae.Format(a.verbose))
	if ae.Issue == 0 {
		return
	}
	if iss := issue.Get(ae.Issue); iss != nil {
		if text, rerr := iss.Render("dark"); rerr == nil {
			fmt.Fprint(a.stderr, text)
		}
	}
}
