package entity

type Marketplace string

const (
	SaxfiMarketplace Marketplace = "SAXFi"
)

// Fungible is the currency symbol recorded against prices and royalties.
const Fungible = "ETH"

const (
	DefaultName    = "SAXFi"
	DefaultSymbol  = "SAX"
	DefaultBaseURI = "https://bafybeic5vuzjkagzt3ybnsxe4tuiksbtv4fcz56lfj5imjr45x2paaf2ua.ipfs.nftstorage.link/"
)
