package main

import "github.com/killallgit/gistapi/cmd"

// @title           Gist Search API
// @version         1.0
// @description     Search a GitHub user's public gists by regular expression.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8000
// @BasePath        /
func main() {
	cmd.Execute()
}
