package stage

import (
	"context"
	"fmt"

	"github.com/xraph/atelier/project"
)

// Artifact names published by the frontend enhancement stage.
const (
	ArtifactTheme       = "app_theme.css"
	ArtifactEnhancement = "app_enhancements.js"
)

// FrontendEnhancement produces the theme stylesheet and client-side
// enhancements layered on top of the generated application. The assets are
// static; only the header comment varies with the project.
type FrontendEnhancement struct{}

// NewFrontendEnhancement creates the stage.
func NewFrontendEnhancement() *FrontendEnhancement {
	return &FrontendEnhancement{}
}

func (s *FrontendEnhancement) Name() string { return NameFrontendEnhancement }

// Execute implements Stage.
func (s *FrontendEnhancement) Execute(ctx context.Context, sc *Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := projectTitle(sc.Requirements)

	css := fmt.Sprintf(`/* %s theme */
:root {
    --primary: #3c78d8;
    --primary-dark: #2c5aa0;
    --accent: #ff5722;
    --background: #f5f5f5;
    --text-primary: #333333;
    --text-secondary: #666666;
    --border: #dddddd;
}

.t-Header {
    background-color: var(--primary);
}

.t-Button--hot {
    background-color: var(--accent);
}

.t-Card {
    border: 1px solid var(--border);
    background: #ffffff;
}

@media (max-width: 768px) {
    .t-Card {
        margin: 8px 0;
    }
}
`, title)

	js := fmt.Sprintf(`/* %s client enhancements */
(function (apex) {
    "use strict";

    // Confirm before any destructive row action.
    apex.jQuery(document).on("click", ".js-confirm-delete", function (e) {
        if (!window.confirm("Delete this record?")) {
            e.preventDefault();
        }
    });

    // Refresh dashboard regions every 30 seconds.
    apex.jQuery(function () {
        window.setInterval(function () {
            apex.region("dashboard") && apex.region("dashboard").refresh();
        }, 30000);
    });
})(window.apex);
`, title)

	return &Result{
		Artifacts: []project.Artifact{
			{Name: ArtifactTheme, Content: css, Kind: project.KindCode},
			{Name: ArtifactEnhancement, Content: js, Kind: project.KindCode},
		},
		Messages: []string{
			"Theme stylesheet and client-side enhancements applied.",
		},
	}, nil
}
