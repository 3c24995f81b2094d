package elastic_search

import (
	"fmt"
)

type Indices string

var (
	MarketActionIndex Indices = "marketaction"
)

// Get prefixes the index with the network and index name.
func (i Indices) Get(network, name string) string {
	return fmt.Sprintf("%s.%s.%s", network, name, string(i))
}
