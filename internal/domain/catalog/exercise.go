package catalog

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"trainerdash/internal/domain/validation"
)

// Exercise is catalog reference data used by the routine builder.
type Exercise struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

var youtubeID = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeID extracts the 11-character video id from a YouTube URL.
// PRE: none
// POST: returns "" when the URL is not a recognisable YouTube link
func YouTubeID(url string) string {
	m := youtubeID.FindStringSubmatch(url)
	if len(m) < 3 || len(m[2]) != 11 {
		return ""
	}
	return m[2]
}

// Thumbnail returns the medium-quality YouTube thumbnail for the exercise video.
func (e Exercise) Thumbnail() string {
	id := YouTubeID(e.VideoURL)
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/mqdefault.jpg"
}

// MuscleGroups returns the distinct muscle groups present in exercises, sorted.
func MuscleGroups(exercises []Exercise) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, e := range exercises {
		if e.MuscleGroup == "" || seen[e.MuscleGroup] {
			continue
		}
		seen[e.MuscleGroup] = true
		groups = append(groups, e.MuscleGroup)
	}
	sort.Strings(groups)
	return groups
}

// ExerciseInput carries the editable fields of a catalog exercise.
type ExerciseInput struct {
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	VideoURL    string `json:"video_url"`
	Description string `json:"description"`
}

// Validate checks the exercise form before it is sent.
// PRE: none
// POST: returns validation.Errors naming every bad field, or nil
func (in ExerciseInput) Validate() error {
	var errs validation.Errors
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, validation.New("name", "name required"))
	}
	if strings.TrimSpace(in.MuscleGroup) == "" {
		errs = append(errs, validation.New("muscle_group", "muscle group required"))
	}
	if v := strings.TrimSpace(in.VideoURL); v != "" {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, validation.New("video_url", "must be an http(s) link"))
		}
	}
	return errs.OrNil()
}

// Prepared returns the input with surrounding whitespace removed.
func (in ExerciseInput) Prepared() ExerciseInput {
	return ExerciseInput{
		Name:        strings.TrimSpace(in.Name),
		MuscleGroup: strings.TrimSpace(in.MuscleGroup),
		VideoURL:    strings.TrimSpace(in.VideoURL),
		Description: strings.TrimSpace(in.Description),
	}
}
