package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"message-center/config"
	"message-center/internal/inbox"
	"message-center/internal/model"
	"message-center/pkg/inboxclient"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// 终端收件箱客户端
// 管理端与客户端共用同一个控制器，登录角色决定收件人解析策略

var (
	unreadStyle  = color.New(color.FgHiYellow, color.Bold)
	readStyle    = color.New(color.FgWhite)
	badgeStyle   = color.New(color.FgHiRed, color.Bold)
	subjectStyle = color.New(color.FgCyan)
)

func main() {
	cfg := config.LoadConfig()

	serverURL := flag.String("server", cfg.Client.ServerURL, "消息中心服务地址")
	email := flag.String("email", "", "登录邮箱")
	passwordFlag := flag.String("password", "", "登录密码")
	flag.Parse()

	if *email == "" || *passwordFlag == "" {
		fmt.Println("用法: inbox -email <邮箱> -password <密码> [-server <地址>]")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 登录并解析身份
	client := inboxclient.New(*serverURL)
	user, err := client.Login(ctx, *email, *passwordFlag)
	if err != nil {
		fmt.Printf("登录失败: %v\n", err)
		os.Exit(1)
	}
	identity := model.Identity{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}

	// 按角色选择收件人策略
	var strategy inbox.RecipientStrategy
	if user.IsStaff() {
		strategy = inbox.NewStaffRecipientStrategy(identity)
	} else {
		strategy = inbox.NewCustomerRecipientStrategy()
	}

	// 共享未读计数：启动轮询，变更操作后由控制器主动刷新
	tracker := inbox.NewTracker(client, cfg.Client.PollInterval, zap.L())
	tracker.Start(ctx)

	notifier := inbox.NotifierFunc(func(message string) {
		color.Red("!! %s", message)
	})
	controller := inbox.NewController(client, tracker, strategy, notifier, identity, zap.L())

	fmt.Printf("已登录: %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	if err := controller.Refresh(ctx); err == nil {
		printList(controller)
	}

	runLoop(ctx, controller)
}

// runLoop 命令循环
func runLoop(ctx context.Context, c *inbox.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	printHelp()

	for {
		fmt.Printf("[%s]", c.ActiveTab())
		if n := c.UnreadCount(); n > 0 {
			badgeStyle.Printf("(%d未读)", n)
		}
		fmt.Print("> ")

		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp()
		case "inbox":
			if err := c.SwitchTab(ctx, model.DirectionInbox); err == nil {
				printList(c)
			}
		case "sent":
			if err := c.SwitchTab(ctx, model.DirectionSent); err == nil {
				printList(c)
			}
		case "list":
			if err := c.Refresh(ctx); err == nil {
				printList(c)
			}
		case "open":
			openMessage(ctx, c, scanner, fields)
		case "compose":
			composeMessage(ctx, c, scanner)
		case "delete":
			deleteMessage(ctx, c, scanner, fields)
		case "quit", "exit":
			return
		default:
			fmt.Println("未知命令，输入 help 查看用法")
		}
	}
}

// openMessage 打开消息，收件箱内可继续回复
func openMessage(ctx context.Context, c *inbox.Controller, scanner *bufio.Scanner, fields []string) {
	id, ok := messageIDAt(c, fields)
	if !ok {
		return
	}

	message, err := c.Select(ctx, id)
	if err != nil {
		fmt.Printf("打开消息失败: %v\n", err)
		return
	}

	fmt.Println(strings.Repeat("-", 60))
	subjectStyle.Printf("主题: %s\n", message.Subject)
	fmt.Printf("发件人: %s <%s>\n", message.SenderName, message.SenderEmail)
	fmt.Printf("收件人: %s <%s>\n", message.ReceiverName, message.ReceiverEmail)
	fmt.Printf("时间: %s\n\n", message.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Println(message.Content)
	for _, a := range message.Attachments {
		fmt.Printf("  [附件] %s (%d字节) %s\n", a.Name, a.Size, a.URL)
	}
	fmt.Println(strings.Repeat("-", 60))

	// 仅收件箱提供回复入口
	if c.ActiveTab() != model.DirectionInbox {
		return
	}
	fmt.Print("回复该消息? (y/N) ")
	if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
		return
	}

	draft, err := c.StartReply()
	if err != nil {
		fmt.Printf("无法回复: %v\n", err)
		return
	}
	fmt.Printf("主题: %s\n", draft.Subject)
	draft.Content = prompt(scanner, "正文: ")
	stageAttachments(scanner, func(name string, f *os.File, contentType string) error {
		return c.StageReplyAttachment(ctx, name, f, contentType)
	})

	if _, err := c.SubmitReply(ctx); err != nil {
		// 命令行下不保留草稿，失败提示已由Notifier给出
		c.CancelReply()
		return
	}
	color.Green("回复已发送")
	printList(c)
}

// composeMessage 写新消息
func composeMessage(ctx context.Context, c *inbox.Controller, scanner *bufio.Scanner) {
	draft := c.StartCompose()

	// 后台人员显式选择收件人，客户自动解析
	options, err := c.RecipientOptions(ctx)
	if err != nil {
		c.CancelCompose()
		return
	}
	if options != nil {
		for i, u := range options {
			fmt.Printf("  %d. %s <%s> (%s)\n", i+1, u.Name, u.Email, u.Role)
		}
		choice, err := strconv.Atoi(prompt(scanner, "收件人编号: "))
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Println("无效的收件人")
			c.CancelCompose()
			return
		}
		draft.ReceiverID = options[choice-1].ID
	}

	draft.Subject = prompt(scanner, "主题: ")
	draft.Content = prompt(scanner, "正文: ")
	stageAttachments(scanner, func(name string, f *os.File, contentType string) error {
		return c.StageComposeAttachment(ctx, name, f, contentType)
	})

	if _, err := c.SubmitCompose(ctx); err != nil {
		c.CancelCompose()
		return
	}
	color.Green("消息已发送")
}

// deleteMessage 删除消息（需要确认）
func deleteMessage(ctx context.Context, c *inbox.Controller, scanner *bufio.Scanner, fields []string) {
	id, ok := messageIDAt(c, fields)
	if !ok {
		return
	}

	err := c.Delete(ctx, id, func() bool {
		fmt.Print("确认删除? 该操作不可恢复 (y/N) ")
		return scanner.Scan() && strings.ToLower(strings.TrimSpace(scanner.Text())) == "y"
	})
	if err == nil {
		printList(c)
	}
}

// stageAttachments 交互式暂存附件，路径留空结束
func stageAttachments(scanner *bufio.Scanner, stage func(name string, f *os.File, contentType string) error) {
	for {
		path := prompt(scanner, "附件路径(回车跳过): ")
		if path == "" {
			return
		}

		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("无法读取文件: %v\n", err)
			continue
		}

		name := filepath.Base(path)
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if err := stage(name, f, contentType); err == nil {
			fmt.Printf("已暂存附件: %s\n", name)
		}
		f.Close()
	}
}

// printList 打印当前标签页的消息列表
func printList(c *inbox.Controller) {
	messages := c.Messages()
	if len(messages) == 0 {
		fmt.Println("(无消息)")
		return
	}

	for i, m := range messages {
		style := readStyle
		marker := " "
		if m.IsUnread() && c.ActiveTab() == model.DirectionInbox {
			style = unreadStyle
			marker = "*"
		}
		counterparty := m.SenderName
		if c.ActiveTab() == model.DirectionSent {
			counterparty = m.ReceiverName
		}
		style.Printf("%s %2d. %-20s %-40s %s\n",
			marker, i+1, counterparty, m.Subject, m.CreatedAt.Format("01-02 15:04"))
	}
}

// messageIDAt 把列表序号参数换算成消息ID
func messageIDAt(c *inbox.Controller, fields []string) (uint, bool) {
	if len(fields) < 2 {
		fmt.Println("缺少消息序号")
		return 0, false
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil || index < 1 || index > len(c.Messages()) {
		fmt.Println("无效的消息序号")
		return 0, false
	}
	return c.Messages()[index-1].ID, true
}

// prompt 读取一行输入
func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// printHelp 打印命令说明
func printHelp() {
	fmt.Println(`命令:
  inbox          切换到收件箱
  sent           切换到已发送
  list           刷新当前列表
  open <序号>    打开消息(收件箱内可回复)
  compose        写新消息
  delete <序号>  删除消息
  quit           退出`)
}
