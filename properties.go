package rethinkbench

// Properties is the configuration bag handed to a DB before Init(). It is
// filled by whichever harness front drives the binding; parsing property
// files is the harness's job, not ours.
type Properties map[string]string

func NewProperties() Properties {
	return make(Properties)
}

func (self Properties) Add(key string, value string) {
	self[key] = value
}

func (self Properties) Get(key string) string {
	v, _ := self[key]
	return v
}

func (self Properties) GetDefault(key string, defaultValue string) string {
	if v, ok := self[key]; ok {
		return v
	}
	return defaultValue
}

func (self Properties) Merge(other map[string]string) {
	for k, v := range other {
		self[k] = v
	}
}
