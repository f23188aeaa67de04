package app

import "charm.land/lipgloss/v2"

const (
	chatBubblePaddingVertical   = 0
	chatBubblePaddingHorizontal = 1
)

var (
	headerStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerMetaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activityStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	dividerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	readOnlyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Italic(true)
	noticeStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
	chatMetaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	thinkingStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	userBubbleStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Background(lipgloss.Color("236")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	assistantBubbleStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)
	streamingBubbleStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(chatBubblePaddingVertical, chatBubblePaddingHorizontal)

	toolPendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	toolResolvedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	toolErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	toolInterruptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)

	pickerFrameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
	pickerItemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	pickerTodayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	loginFrameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2)
)
