package domain

// Category is the content-site taxonomy term a class is filed under.
type Category struct {
	TermID int    `json:"term_id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
}

// TrainerImages holds the media ids configured for one trainer slot.
// ImageSecondary is zero when the slot carries a single image.
type TrainerImages struct {
	ImagePrimary   int `json:"image_1"`
	ImageSecondary int `json:"image_2"`
}

// DayTrainers is the fixed set of three trainer slots per day.
type DayTrainers struct {
	Trainer1 TrainerImages `json:"trainer_1"`
	Trainer2 TrainerImages `json:"trainer_2"`
	Trainer3 TrainerImages `json:"trainer_3"`
}

// Slot resolves a trainer slot by its key. The bool is false for
// unknown keys.
func (t DayTrainers) Slot(key string) (TrainerImages, bool) {
	switch key {
	case "trainer_1":
		return t.Trainer1, true
	case "trainer_2":
		return t.Trainer2, true
	case "trainer_3":
		return t.Trainer3, true
	}
	return TrainerImages{}, false
}

// SlotKeys lists the trainer slot keys in their fixed order.
func (t DayTrainers) SlotKeys() []string {
	return []string{"trainer_1", "trainer_2", "trainer_3"}
}

// DayConfig is the per-weekday publishing configuration fetched from the
// content system's options endpoint. Read-only to the rest of the module;
// fetched once per pipeline run.
type DayConfig struct {
	Category *Category   `json:"category"`
	Trainers DayTrainers `json:"trainers"`
}
