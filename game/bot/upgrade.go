package bot

// selectUpgrades picks what to upgrade this tick. The budget is half the
// town armor, spent greedily in train-id order on trains whose dispatched
// move lands at the town. When no train reaches the town the town itself is
// considered instead.
func (b *Bot) selectUpgrades(dispatched map[int]move) (posts, trains []int) {
	town := b.state.Town
	if town == nil {
		return nil, nil
	}
	budget := town.Armor / 2

	var atTown []int
	for _, train := range b.state.OwnTrains() {
		m, ok := dispatched[train.Idx]
		if !ok {
			continue
		}
		if endpointAt(b.state, m.lineIdx, m.position) == town.PointIdx {
			atTown = append(atTown, train.Idx)
		}
	}

	for _, trainIdx := range atTown {
		price := b.state.Trains[trainIdx].NextLevelPrice
		if price != nil && *price <= budget {
			trains = append(trains, trainIdx)
			budget -= *price
		}
	}

	if len(atTown) == 0 && town.NextLevelPrice != nil && *town.NextLevelPrice <= budget {
		posts = append(posts, town.Idx)
	}
	return posts, trains
}
