package catalog

// DefaultEntries is the built-in scooter catalog, used when no catalog file
// is configured. Prices are the server-side source of truth; client-supplied
// amounts are never trusted.
func DefaultEntries() []Entry {
	return []Entry{
		{Code: "T10", Name: "T10", Price: "450.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-t/t10/", ImageURL: "https://scootshop.co/patinetes/series-t/t10/img/1.jpg"},
		{Code: "TF3", Name: "TF3", Price: "799.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-t/tf3/", ImageURL: "https://scootshop.co/patinetes/series-t/tf3/img/1.jpg"},
		{Code: "IX3", Name: "IX3", Price: "399.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-ix/ix3/", ImageURL: "https://scootshop.co/patinetes/series-ix/ix3/img/1.jpg"},
		{Code: "G2", Name: "G2", Price: "299.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-g/g2/", ImageURL: "https://scootshop.co/patinetes/series-g/g2/img/1.jpg"},
		{Code: "N7PRO", Name: "N7PRO", Price: "349.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-n/n7pro/", ImageURL: "https://scootshop.co/patinetes/series-n/n7pro/img/1.jpg"},
		{Code: "S4", Name: "S4", Price: "279.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-s/s4/", ImageURL: "https://scootshop.co/patinetes/series-s/s4/img/1.jpg"},
		{Code: "T30", Name: "T30", Price: "899.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-t/t30/", ImageURL: "https://scootshop.co/patinetes/series-t/t30/img/1.jpg"},
		{Code: "W9", Name: "W9", Price: "499.00", Currency: "EUR", URL: "https://scootshop.co/patinetes/series-w/w9/", ImageURL: "https://scootshop.co/patinetes/series-w/w9/img/1.jpg"},
	}
}

// Default builds the built-in catalog. It panics only if DefaultEntries is
// itself inconsistent, which is a programming error.
func Default() *Catalog {
	c, err := New(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return c
}
