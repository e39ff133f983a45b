// Package config holds the simulator configuration: the logging threshold,
// document defaults, file associations, and the exclude lists used by file
// search and file watchers.
//
// A configuration is read from a TOML or YAML file and merged over Default:
//
//	cfg, err := config.Load("extsim.toml")
//	if err != nil {
//	    return err
//	}
//	h := project.New(project.WithConfig(cfg))
//
// A missing file yields the defaults. Exclude lists from the file are added
// to the default lists rather than replacing them; see Merge.
//
// The settings of a loaded .code-workspace file are layered on top by
// workspace.Workspace.Config.
package config
