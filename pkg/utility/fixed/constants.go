package fixed

var (
	NegOne  = FromInt64(-1, 0)
	Zero    = FromInt64(0, 0)
	One     = FromInt64(1, 0)
	Two     = FromInt64(2, 0)
	Hundred = FromInt64(100, 0)
	Sqrt252 = MustParse("15.874507866387544")
	Year    = FromInt64(365, 0)
)
