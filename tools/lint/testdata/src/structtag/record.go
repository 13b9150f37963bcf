package structtag

type record struct {
	Version int    `json:"version"`
	Root    string `json:"root"`
	Path    string `json:"root"` // want `struct field Path repeats json tag "root"`
}

type storeConfig struct {
	Backend string `toml:"backend" json` // want `struct field tag .* not compatible with reflect.StructTag.Get`
}

type entry struct {
	Path string `json:"path"`
	Rel  string `json:"rel"`
}
