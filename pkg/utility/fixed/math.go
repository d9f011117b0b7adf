package fixed

func Sum(points []Point) Point {
	total := Zero
	for _, p := range points {
		total = total.Add(p)
	}
	return total
}

func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	return Sum(points).DivInt(len(points))
}

// squaredDev returns the sum of squared distances from ref over the points
// accepted by keep, and how many were accepted.
func squaredDev(points []Point, ref Point, keep func(Point) bool) (Point, int) {
	total, n := Zero, 0
	for _, p := range points {
		if keep != nil && !keep(p) {
			continue
		}
		d := p.Sub(ref)
		total = total.Add(d.Mul(d))
		n++
	}
	return total, n
}

// StdDev is the population standard deviation around mean.
func StdDev(points []Point, mean Point) Point {
	if len(points) < 2 {
		return Zero
	}
	total, n := squaredDev(points, mean, nil)
	return total.DivInt(n).Sqrt()
}

// DownsideDev only counts points below target.
func DownsideDev(points []Point, target Point) Point {
	total, n := squaredDev(points, target, func(p Point) bool { return p.Lt(target) })
	if n < 2 {
		return Zero
	}
	return total.DivInt(n).Sqrt()
}

func SharpeRatio(points []Point, riskFree Point) Point {
	mean := Mean(points)
	return excessOver(mean, riskFree, StdDev(points, mean))
}

func SortinoRatio(points []Point, riskFree Point) Point {
	return excessOver(Mean(points), riskFree, DownsideDev(points, riskFree))
}

func excessOver(mean, riskFree, dev Point) Point {
	if dev.IsZero() {
		return Zero
	}
	return mean.Sub(riskFree).Div(dev)
}
