// Package io exports duplicate reports in machine-readable formats.
//
// # Overview
//
// The show command prints duplicates as tables for people. This package
// writes the same information as JSON or YAML so it can be consumed by
// scripts, diffed between hosts or attached to bug reports.
//
// # Format
//
// Both formats share one structure: a list of packages, each with the
// installations that make it a duplicate, in scan order:
//
//	{
//	  "packages": [
//	    {
//	      "name": "requests",
//	      "installations": [
//	        {"manager": "rpm", "package": "python3-requests", "version": "2.31.0",
//	         "location": "/usr/lib/python3.12/site-packages/requests"},
//	        {"manager": "pip", "package": "requests", "version": "2.32.3",
//	         "location": "/home/user/.local/lib/python3.12/site-packages"}
//	      ]
//	    }
//	  ]
//	}
//
// # Installation Fields
//
//   - manager: the package manager that installed it (rpm, dpkg, pip, pipx)
//   - package: the manager's own name for the package
//   - version: the manager's version string
//   - location: install path, omitted when the manager does not report one
//   - files: owned files, only written when requested
//
// # Usage
//
//	d, _ := c.Duplicates(ctx)
//	if err := io.Write(d, os.Stdout, io.FormatJSON, false); err != nil {
//	    return err
//	}
package io
