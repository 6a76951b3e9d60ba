// Package github serves a declaration file index directly from GitHub.
//
// # Overview
//
// [Client] implements the index source interfaces without a local git
// checkout. [Client.Sync] downloads the recursive tree listing of the
// repository (https://api.github.com/repos/{owner}/{repo}/git/trees/{ref})
// and stores it as a [Snapshot] in the configured cache. [Client.List] and
// [Client.Ref] read that snapshot; [Client.FetchFile] downloads raw file
// contents from raw.githubusercontent.com and caches them by blob SHA.
//
// # Usage
//
//	c, err := github.NewClient("https://github.com/borisyankov/DefinitelyTyped.git", "master",
//	    github.Options{Cache: fileCache, Token: os.Getenv("GITHUB_TOKEN")})
//	if err != nil {
//	    return err
//	}
//	if err := c.Sync(ctx); err != nil {
//	    return err
//	}
//	data, err := c.FetchFile(ctx, "jquery/jquery.d.ts")
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. Raw content requests do
// not count against the API limit.
//
// # Limits
//
// GitHub truncates recursive tree listings of very large repositories. The
// snapshot records this and a warning is logged; files missing from a
// truncated listing cannot be resolved.
package github
