// Package preflight provides readiness checks for the external tools and
// filesystem paths that Lightbox depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before starting its lanes. If a
//     mandatory check fails, processing never begins, so a missing exiftool
//     or an unwritable library surfaces before any card is touched.
//   - The CLI "lightbox status" command uses individual check functions
//     (CheckDirectoryAccess, CheckSystemDeps, ProbeCards) to display
//     environment health.
package preflight
