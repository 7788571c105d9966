// Command jsfn lists the package-level functions usable as native methods and
// prints them as property table entries.
//
// For example, to generate the entries for the Array prototype:
//
//	jsfn -match ^Array -length push=1,slice=2
//
// Functions whose names do not begin with the match, or which would have an
// empty property name, are skipped. The length of each function is 0 unless
// given by -length, since a native signature does not record its arity.
package main

import (
	"flag"
	"fmt"
	"go/types"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

func main() {
	var match, ignore, pkgPath, typeName, lengthList string
	flag.StringVar(&match, "match", ".", "include only functions matching this regular expression; the match is trimmed from property names")
	flag.StringVar(&ignore, "ignore", "$^", "exclude functions matching this regular expression")
	flag.StringVar(&pkgPath, "jsvm", "github.com/zephyrtronium/jsvm/internal", "import path of the package defining the function type")
	flag.StringVar(&typeName, "type", "NativeFn", "name of the function type")
	flag.StringVar(&lengthList, "length", "", "comma-separated prop=n pairs giving function lengths")
	flag.Parse()
	lengths, err := parseLengths(lengthList)
	if err != nil {
		fail("error parsing length:", err)
	}
	mre, err := regexp.Compile(match)
	if err != nil {
		fail("error compiling match:", err)
	}
	ire, err := regexp.Compile(ignore)
	if err != nil {
		fail("error compiling ignore:", err)
	}

	cfg := packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedImports}
	pkgs, err := packages.Load(&cfg, append([]string{pkgPath}, flag.Args()...)...)
	if err != nil {
		fail("error loading packages:", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}
	fn := lookupFn(pkgs[0].Types, typeName)
	search := pkgs[1:]
	if len(search) == 0 {
		search = pkgs[:1]
	}
	var results []string
	for _, pkg := range search {
		results = append(results, find(pkg.Types.Scope(), fn, mre, ire)...)
	}
	sort.Strings(results)
	for _, name := range results {
		prop, ok := propName(name, mre)
		if !ok {
			fmt.Fprintln(os.Stderr, "skipping", name)
			continue
		}
		fmt.Printf("\t%q: vm.Fn(%q, %d, %s),\n", prop, prop, lengths[prop], name)
	}
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

// lookupFn finds the underlying signature of the named function type.
func lookupFn(pkg *types.Package, name string) types.Type {
	r := pkg.Scope().Lookup(name)
	if r == nil {
		fail(pkg.Path(), "has no definition of", name)
	}
	t, ok := r.(*types.TypeName)
	if !ok {
		fail(pkg.Path(), "has incorrect definition of", name+":", r)
	}
	return t.Type().Underlying()
}

// find returns the names of package-level functions in scope assignable to fn.
func find(scope *types.Scope, fn types.Type, mre, ire *regexp.Regexp) []string {
	var r []string
	for _, name := range scope.Names() {
		if !mre.MatchString(name) || ire.MatchString(name) {
			continue
		}
		f, ok := scope.Lookup(name).(*types.Func)
		if !ok || !f.Exported() {
			continue
		}
		if types.AssignableTo(f.Type(), fn) {
			r = append(r, name)
		}
	}
	return r
}

// propName converts a Go function name to the property name of the method it
// implements, removing the prefix matched by mre. The result is false if the
// match is not a prefix of name or if nothing remains after removing it.
func propName(name string, mre *regexp.Regexp) (string, bool) {
	if mre.String() != "." {
		k := mre.FindStringIndex(name)
		if k == nil || k[0] != 0 {
			return "", false
		}
		name = name[k[1]:]
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name[:1]) + name[1:], true
}

// parseLengths parses a list like "push=1,slice=2".
func parseLengths(s string) (map[string]int, error) {
	r := make(map[string]int)
	if s == "" {
		return r, nil
	}
	for _, pair := range strings.Split(s, ",") {
		prop, n, ok := strings.Cut(pair, "=")
		if !ok || prop == "" {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		k, err := strconv.Atoi(n)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("bad length in %q", pair)
		}
		r[prop] = k
	}
	return r, nil
}
