package pagination

// PageDefaultLimit is the default page size if not specified
const PageDefaultLimit = 1000

// PageMaxLimit is the maximum allowed page size
const PageMaxLimit = 10_000
