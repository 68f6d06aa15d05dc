// Package vision implements the Vision Analyzer: UI-element detection,
// application signature matching, activity classification, and scene
// context analysis over a single captured frame.
package vision

import "time"

// ElementType enumerates the kinds of visual elements UIDetector and
// ObjectDetector can report.
type ElementType string

const (
	ElementWindow    ElementType = "window"
	ElementButton    ElementType = "button"
	ElementTextField ElementType = "text_field"
	ElementImage     ElementType = "image"
	ElementVideo     ElementType = "video"
	ElementMenu      ElementType = "menu"
	ElementIcon      ElementType = "icon"
	ElementText      ElementType = "text"
	ElementStatusBar ElementType = "status_bar"
	ElementToolbar   ElementType = "toolbar"
	ElementBrowser   ElementType = "browser"
	ElementIDE       ElementType = "ide"
	ElementVideoCall ElementType = "video_call"
	ElementChat      ElementType = "chat"
	ElementTerminal  ElementType = "terminal"
)

// BoundingBox is a pixel rectangle carrying the detector's confidence in it.
type BoundingBox struct {
	X, Y, Width, Height int
	Confidence          float32
}

// ElementProperties carries the optional secondary attributes a detector
// may populate for a VisualElement.
type ElementProperties struct {
	ColorScheme  *ColorScheme
	TextContent  string
	IsInteractive bool
	State        string
	AppContext   string
}

// ColorScheme summarizes the palette sampled from a region.
type ColorScheme struct {
	DominantColors []string
	IsDarkTheme    bool
	AccentColor    string
}

// VisualElement is one detected on-screen element.
type VisualElement struct {
	Type       ElementType
	Box        BoundingBox
	Properties ElementProperties
	Confidence float32
}

// AppType classifies a detected application into a category plus a
// category-specific variant, mirroring the nested enum the reference
// signature database uses to key its color patterns.
type AppType struct {
	Category string // video_conferencing, ide, browser, productivity, entertainment, communication, development, system_utility, unknown
	Variant  string // e.g. "zoom", "vscode", "chrome", "" for Other/Unknown
}

var (
	AppUnknown = AppType{Category: "unknown"}
)

// VisualIndicator records one piece of evidence an AppDetector used.
type VisualIndicator struct {
	Type       string // window_title, logo, ui_layout, color_scheme, url_bar, status_indicator, button_text, icon_shape, menu_structure
	Value      string
	Position   BoundingBox
	Confidence float32
}

// WindowState is the on-screen state of a detected application's window.
type WindowState string

const (
	WindowFocused    WindowState = "focused"
	WindowBackground WindowState = "background"
	WindowMinimized  WindowState = "minimized"
	WindowFullscreen WindowState = "fullscreen"
	WindowSplit      WindowState = "split"
)

// DetectedApp is one application AppDetector believes is on screen.
type DetectedApp struct {
	Type             AppType
	Name             string
	Confidence       float32
	VisualIndicators []VisualIndicator
	ScreenRegion     BoundingBox
	WindowState      WindowState
}

// WindowInfo describes an OS-reported window (populated by a system API in
// a full deployment; left empty when unavailable, as in the teacher's
// placeholder window detector).
type WindowInfo struct {
	Title        string
	AppName      string
	Bounds       BoundingBox
	WindowLevel  int
	IsFocused    bool
	IsMinimized  bool
	IsFullscreen bool
}

// BrowserContext, IDEContext, and MeetingContext are app-category-specific
// context records AppDetector can attach when it recognizes the category.
type BrowserContext struct {
	BrowserType        string
	VisibleTabs        []TabInfo
	CurrentURL         string
	PageType           string
	NavigationElements []VisualElement
}

type TabInfo struct {
	Title     string
	URL       string
	IsActive  bool
	Favicon   string
}

type IDEContext struct {
	IDEType         string
	ActiveFile      string
	Language        string
	ProjectStructure []string
	ErrorsVisible   bool
	DebugMode       bool
	Extensions      []string
}

type MeetingContext struct {
	Platform            string
	ParticipantCount    int
	IsScreenSharing     bool
	IsRecording         bool
	CameraOn            bool
	MicrophoneOn        bool
	ChatVisible         bool
	ParticipantsVisible bool
}

// DesktopContext describes the ambient desktop environment when no
// foreground app dominates the frame.
type DesktopContext struct {
	Environment           string
	Theme                 ThemeInfo
	DockVisible           bool
	MenuBarVisible        bool
	NotificationCenterOpen bool
}

// ThemeInfo is the desktop-level light/dark + accent summary.
type ThemeInfo struct {
	IsDarkMode   bool
	AccentColor  string
	WallpaperType string
}

// AppContext aggregates everything AppDetector learned about this frame.
type AppContext struct {
	DetectedApplications []DetectedApp
	ActiveWindows        []WindowInfo
	BrowserContext       *BrowserContext
	IDEContext           *IDEContext
	MeetingContext       *MeetingContext
	DesktopEnvironment   *DesktopContext
}

// Activity is the primary classification ActivityClassifier assigns to a
// frame.
type Activity string

const (
	ActivityCoding         Activity = "coding"
	ActivityVideoMeeting   Activity = "video_meeting"
	ActivityBrowsing       Activity = "browsing"
	ActivityWriting        Activity = "writing"
	ActivityWatching       Activity = "watching_media"
	ActivityCommunicating  Activity = "communicating"
	ActivitySystemTask     Activity = "system_task"
	ActivityIdle           Activity = "idle"
	ActivityUnknown        Activity = "unknown"
)

// ActivityEvidence is one weighted observation supporting a classification.
type ActivityEvidence struct {
	Description string
	Weight      float32
}

// ActivityClassification is ActivityClassifier's output: a primary
// activity plus any secondary activities, each with the evidence that
// supported it.
type ActivityClassification struct {
	Primary            Activity
	PrimaryConfidence  float32
	Secondary          []Activity
	Evidence           []ActivityEvidence
}

// LayoutType is ContextAnalyzer's inferred screen-division shape.
type LayoutType string

const (
	LayoutSingleColumn LayoutType = "single_column"
	LayoutTwoColumn    LayoutType = "two_column"
	LayoutThreeColumn  LayoutType = "three_column"
	LayoutGrid         LayoutType = "grid"
	LayoutDashboard    LayoutType = "dashboard"
	LayoutFullscreen   LayoutType = "fullscreen"
	LayoutSplit        LayoutType = "split"
	LayoutUnknown      LayoutType = "unknown"
)

// ContentType labels what a region of the screen holds.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentImage      ContentType = "image"
	ContentVideo      ContentType = "video"
	ContentCode       ContentType = "code"
	ContentForm       ContentType = "form"
	ContentNavigation ContentType = "navigation"
	ContentUnknown    ContentType = "unknown"
)

// ContentArea is a rectangle tagged with its inferred content type.
type ContentArea struct {
	X, Y, Width, Height int
	ContentType         ContentType
}

// GridStructure describes a detected regular grid layout.
type GridStructure struct {
	Rows, Columns int
	CellWidth     int
	CellHeight    int
}

// LayoutAnalysis is ContextAnalyzer's structural read of the screen.
type LayoutAnalysis struct {
	LayoutType          LayoutType
	GridStructure       *GridStructure
	PrimaryContentArea  *ContentArea
	SidebarPresent      bool
	HeaderPresent       bool
	FooterPresent       bool
}

// AttentionReason explains why AttentionArea scored as high-salience.
type AttentionReason string

const (
	ReasonBrightColors       AttentionReason = "bright_colors"
	ReasonMovement           AttentionReason = "movement"
	ReasonContrastDifference AttentionReason = "contrast_difference"
	ReasonCenterPosition     AttentionReason = "center_position"
	ReasonLargeSize          AttentionReason = "large_size"
	ReasonUnusualShape       AttentionReason = "unusual_shape"
)

// AttentionArea is one region ContextAnalyzer believes draws the user's eye.
type AttentionArea struct {
	Region         ContentArea
	AttentionScore float32
	Reason         AttentionReason
}

// InteractionType is the kind of interactive control found.
type InteractionType string

const (
	InteractionButton      InteractionType = "button"
	InteractionLink        InteractionType = "link"
	InteractionInput       InteractionType = "input"
	InteractionDropdown    InteractionType = "dropdown"
	InteractionSlider      InteractionType = "slider"
	InteractionCheckbox    InteractionType = "checkbox"
	InteractionRadioButton InteractionType = "radio_button"
	InteractionTab         InteractionType = "tab"
)

// InteractionState is the observed runtime state of a control.
type InteractionState string

const (
	InteractionNormal   InteractionState = "normal"
	InteractionHover    InteractionState = "hover"
	InteractionActive   InteractionState = "active"
	InteractionDisabled InteractionState = "disabled"
	InteractionSelected InteractionState = "selected"
	InteractionLoading  InteractionState = "loading"
)

// InteractionElement is an interactive control plus an accessibility score.
type InteractionElement struct {
	Type               InteractionType
	Position           ContentArea
	State              InteractionState
	AccessibilityScore float32
}

// ContentDensity classifies how crowded a region is.
type ContentDensity string

const (
	DensitySparse      ContentDensity = "sparse"
	DensityMedium      ContentDensity = "medium"
	DensityDense       ContentDensity = "dense"
	DensityOvercrowded ContentDensity = "overcrowded"
)

// ContentRegion is one screen-tile with its density classification.
type ContentRegion struct {
	Region         ContentArea
	ContentType    ContentType
	Density        ContentDensity
	ScrollPosition *float32
}

// SceneTheme is the color/theme read ContextAnalyzer derives from the
// modal background color.
type SceneTheme struct {
	IsDarkMode     bool
	PrimaryColor   string
	SecondaryColor string
	AccentColor    string
	BackgroundColor string
	TextColor      string
	ContrastRatio  float32
}

// VisualContext is ContextAnalyzer's full output.
type VisualContext struct {
	DominantColors       []string
	LayoutAnalysis       LayoutAnalysis
	AttentionAreas       []AttentionArea
	InteractionElements  []InteractionElement
	ContentRegions       []ContentRegion
	Theme                SceneTheme
}

// ImageMetadata captures the analyzed frame's basic properties.
type ImageMetadata struct {
	Width, Height int
	Format        string
}

// ScreenAnalysis is VisionAnalyzer's complete output for one frame.
type ScreenAnalysis struct {
	Timestamp              time.Time
	VisualElements         []VisualElement
	AppContext             AppContext
	ActivityClassification ActivityClassification
	VisualContext          VisualContext
	ProcessingTime         time.Duration
	ImageMetadata          ImageMetadata
}

// Config toggles the VisionAnalyzer's optional stages.
type Config struct {
	EnableAppDetection           bool
	EnableActivityClassification bool
	EnableUIAnalysis             bool
	PatternMatchingThreshold     float32
}

// DefaultConfig mirrors the reference analyzer's defaults.
func DefaultConfig() Config {
	return Config{
		EnableAppDetection:           true,
		EnableActivityClassification: true,
		EnableUIAnalysis:             true,
		PatternMatchingThreshold:     0.6,
	}
}
