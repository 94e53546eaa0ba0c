// SPDX-License-Identifier: MPL-2.0

// Package loadremote resolves `#load nuget:` directives in build scripts.
//
// A DirectiveMatcher runs inside the script analyzer and records a
// PackageReference for every remote load it sees. After analysis, a
// RecursiveInstaller installs each referenced package, analyzes its files,
// merges them into the composed Result and recurses into the packages those
// files load in turn. Because analysis output is appended at the tail of the
// composed line sequence, every finished package is handed to Rearrange,
// which moves the package's lines to just after the directive that imported
// it and repairs the `#line` marker that resumes the importing file.
//
// Composer ties the pieces together for a single root script.
package loadremote
