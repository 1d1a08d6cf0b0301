// Package scaffold generates new Python project trees.
//
// A [Registry] maps (profile, template) pairs to generators. Profiles group
// templates by project kind ("api", "lib"); a profile may also be reserved,
// meaning the name is known but nothing can be generated for it yet. The
// default catalog is returned by [DefaultRegistry].
//
// Generators render embedded text/template sources (with the sprig function
// library) into a map of slash-separated relative paths to file contents,
// which [Write] materialises on disk.
package scaffold
