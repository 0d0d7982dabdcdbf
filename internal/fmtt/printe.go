// Package fmtt prints diagnostic detail for an error chain, for the rare
// case where a zap field isn't enough to see what actually went wrong.
package fmtt

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// PrintErrChain walks an error chain and prints each layer with its type.
func PrintErrChain(err error) {
	if err == nil {
		fmt.Println("<nil>")
		return
	}

	i := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Printf("[%d] %T: %v\n", i, e, e)
		i++
	}
}

// PrintErrChainDebug is PrintErrChain plus a spew.Dump of each layer and a
// listing of its exported fields, for diagnosing a fatal startup failure
// (engine open, TLS cert load, session key generation) when --dev is set.
func PrintErrChainDebug(err error) {
	for i := 0; err != nil; err = errors.Unwrap(err) {
		fmt.Printf("[%d] %T\n", i, err)
		fmt.Printf("   Error(): %v\n", err)

		spew.Dump(err)

		rv := reflect.ValueOf(err)
		rt := reflect.TypeOf(err)
		if rt.Kind() == reflect.Ptr {
			rv = rv.Elem()
			rt = rt.Elem()
		}
		if rt.Kind() == reflect.Struct {
			for j := 0; j < rt.NumField(); j++ {
				f := rt.Field(j)
				v := rv.Field(j)
				if v.CanInterface() {
					fmt.Printf("   Field %s (%s): %+v\n", f.Name, f.Type, v.Interface())
				}
			}
		}

		if u, ok := err.(interface{ Unwrap() error }); ok {
			fmt.Printf("   Has Unwrap(): %T\n", u.Unwrap())
		}
		if c, ok := err.(interface{ Cause() error }); ok {
			fmt.Printf("   Has Cause(): %T\n", c.Cause())
		}

		i++
	}
}
