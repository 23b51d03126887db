// Package configmap provides an abstraction for reading and writing
// account configuration from several layered sources.
package configmap

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// Getter provides an interface to get config items
type Getter interface {
	// Get should get an item with the key passed in and return
	// the value. If the item is found then it should return true,
	// otherwise false.
	Get(key string) (value string, ok bool)
}

// Setter provides an interface to set config items
type Setter interface {
	// Set should set an item into persistent config store.
	Set(key, value string)
}

// Mapper provides an interface to read and write config
type Mapper interface {
	Getter
	Setter
}

// Map layers multiple Getters and Setters.  Getters are consulted in
// the order they were added and the first hit wins.
type Map struct {
	setters []Setter
	getters []Getter
}

// New returns an empty Map
func New() *Map {
	return &Map{}
}

// AddGetter appends a getter onto the end of the getters
func (c *Map) AddGetter(getter Getter) *Map {
	c.getters = append(c.getters, getter)
	return c
}

// AddSetter appends a setter onto the end of the setters
func (c *Map) AddSetter(setter Setter) *Map {
	c.setters = append(c.setters, setter)
	return c
}

// Get gets an item with the key passed in and return the value from
// the first getter. If the item is found then it returns true,
// otherwise false.
func (c *Map) Get(key string) (value string, ok bool) {
	for _, do := range c.getters {
		value, ok = do.Get(key)
		if ok {
			return value, ok
		}
	}
	return "", false
}

// Set sets an item into all the stored setters.
func (c *Map) Set(key, value string) {
	for _, do := range c.setters {
		do.Set(key, value)
	}
}

// Simple is a simple Mapper for testing
type Simple map[string]string

// Get the value
func (c Simple) Get(key string) (value string, ok bool) {
	value, ok = c[key]
	return value, ok
}

// Set the value
func (c Simple) Set(key, value string) {
	c[key] = value
}

// String the map value with sorted keys, quoting values with ' and
// escaping ' as ''.
func (c Simple) String() string {
	var ks = make([]string, 0, len(c))
	for k := range c {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	var out strings.Builder
	for _, k := range ks {
		if out.Len() > 0 {
			out.WriteRune(',')
		}
		out.WriteString(k)
		out.WriteString("='")
		out.WriteString(strings.ReplaceAll(c[k], "'", "''"))
		out.WriteRune('\'')
	}
	return out.String()
}

// Env reads config items from environment variables named
// <Prefix>_<KEY> with the key upper cased.
type Env struct {
	Prefix string
}

// Get the value from the environment
func (e Env) Get(key string) (value string, ok bool) {
	name := strings.ToUpper(e.Prefix + "_" + strings.ReplaceAll(key, "-", "_"))
	return os.LookupEnv(name)
}

// Flags reads config items from command line flags which were set
// explicitly.  The flag for key "dav_path" is looked up as
// "<Prefix>-dav-path".
type Flags struct {
	Prefix string
	Set    *pflag.FlagSet
}

// Get the value of the flag if it was changed on the command line
func (f Flags) Get(key string) (value string, ok bool) {
	name := strings.ReplaceAll(key, "_", "-")
	if f.Prefix != "" {
		name = f.Prefix + "-" + name
	}
	flag := f.Set.Lookup(name)
	if flag == nil || !flag.Changed {
		return "", false
	}
	return flag.Value.String(), true
}
