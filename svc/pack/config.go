package pack

type Config struct {
	// ShareBaseURL is joined with a pack's share slug to form its public link.
	ShareBaseURL string `env:"PACK_SHARE_BASE_URL" envDefault:"https://t333.watch/p"`
	ListLimit    int    `env:"PACK_LIST_LIMIT" envDefault:"50"`
}
