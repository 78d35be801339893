// Package definitions loads scheme, form and result page definitions from
// JSON or YAML documents and checks that they reference each other
// consistently. The built-in PPA, BEAS and AMW schemes are embedded.
package definitions
